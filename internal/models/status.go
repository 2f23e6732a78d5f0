package models

// ISO 20022 transaction status codes, as reported by the bank. The bank owns
// the state machine; this service records statuses but never enforces
// transition legality.
const (
	StatusRejected           = "RJCT"
	StatusReceived           = "RCVD"
	StatusAccepted           = "ACCP"
	StatusAcceptedTechnical  = "ACTP"
	StatusAcceptedSettlement = "ACSP"
	StatusAcceptedWithChange = "ACWC"
	StatusAcceptedPending    = "ACWP"
	StatusAcceptedCredit     = "ACCC"
	StatusCancelled          = "CANC"
	StatusPending            = "PDNG"
)

var transactionStatuses = map[string]bool{
	StatusRejected:           true,
	StatusReceived:           true,
	StatusAccepted:           true,
	StatusAcceptedTechnical:  true,
	StatusAcceptedSettlement: true,
	StatusAcceptedWithChange: true,
	StatusAcceptedPending:    true,
	StatusAcceptedCredit:     true,
	StatusCancelled:          true,
	StatusPending:            true,
}

// IsValidStatus reports whether code is a known transaction status.
func IsValidStatus(code string) bool {
	return transactionStatuses[code]
}

// Transaction types.
const (
	TypeDeposit    = "DEPOSIT"
	TypeWithdrawal = "WITHDRAWAL"
	TypeTransfer   = "TRANSFER"
)

var transactionTypes = map[string]bool{
	TypeDeposit:    true,
	TypeWithdrawal: true,
	TypeTransfer:   true,
}

// IsValidTransactionType reports whether t is a known transaction type.
func IsValidTransactionType(t string) bool {
	return transactionTypes[t]
}

// Transfer types.
const (
	TransferStandard = "standard"
	TransferInstant  = "instant"
)

var transferTypes = map[string]bool{
	TransferStandard: true,
	TransferInstant:  true,
}

// IsValidTransferType reports whether t is a known transfer type.
func IsValidTransferType(t string) bool {
	return transferTypes[t]
}
