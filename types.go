package finpilot

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents a task's lifecycle state.
// Valid values: pending, resolved, failed. Resolved and failed are terminal.
// Kept as string for readability in SQL and logs.
type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
	StatusFailed   Status = "failed"
)

// Kind identifies the asynchronous operation a task performs.
type Kind string

const (
	KindReceiptUpload  Kind = "receipt_upload"
	KindChatMessage    Kind = "chat_message"
	KindAccountConnect Kind = "account_connect"
)

// Task is one unit of asynchronous work. It is created pending at submit
// time and mutated exactly once, to resolved or failed.
type Task struct {
	ID          string // uuid assigned at submit
	Kind        Kind
	PayloadJSON string // kind-specific input, JSON encoded
	Status      Status
	ErrorMsg    *string // failure reason, set only when failed
	ResultJSON  *string // kind-specific result, set only when resolved
	SubmittedAt time.Time
	ResolvedAt  *time.Time
}

// Terminal reports whether the task reached a final state.
func (t *Task) Terminal() bool {
	return t.Status == StatusResolved || t.Status == StatusFailed
}

// ReceiptUploadInput describes the uploaded file. Only the metadata travels
// through the pipeline; the scanner never reads the file bytes.
type ReceiptUploadInput struct {
	FileName  string `json:"file_name"`
	MediaType string `json:"media_type"`
}

// ChatMessageInput carries the user's message and, optionally, their
// financial snapshot for template interpolation.
type ChatMessageInput struct {
	Text     string             `json:"text"`
	Snapshot *FinancialSnapshot `json:"snapshot,omitempty"`
}

// AccountConnectInput names the provider entry the user picked.
type AccountConnectInput struct {
	Provider    ProviderType `json:"provider"`
	AccountName string       `json:"account_name"`
}

// ReceiptItem is a single line on a scanned receipt.
type ReceiptItem struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// ReceiptResult is the outcome of a receipt_upload task.
// Invariant: Total = sum(item.UnitPrice * item.Quantity) + Tax.
type ReceiptResult struct {
	StoreName string          `json:"store_name"`
	Date      string          `json:"date"`
	Items     []ReceiptItem   `json:"items"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
}

// ChatResult is the outcome of a chat_message task.
type ChatResult struct {
	UserText  string `json:"user_text"`
	ReplyText string `json:"reply_text"`
	Category  string `json:"category"` // matched category name, or "general"
}

// ProviderType classifies a connectable account source.
type ProviderType string

const (
	ProviderBank ProviderType = "bank"
	ProviderUPI  ProviderType = "upi"
	ProviderCard ProviderType = "card"
)

// AccountRecord is the outcome of an account_connect task.
type AccountRecord struct {
	Provider    ProviderType `json:"provider"`
	AccountName string       `json:"account_name"`
}

// FinancialSnapshot is the caller-supplied context the chat responder
// interpolates into its templates. Amounts are whole currency units.
type FinancialSnapshot struct {
	Balance         int64           `json:"balance" yaml:"balance"`
	MonthlySpending int64           `json:"monthly_spending" yaml:"monthly_spending"`
	Categories      []CategoryTotal `json:"categories" yaml:"categories"`
}

// CategoryTotal is one spending category inside a snapshot.
type CategoryTotal struct {
	Name   string `json:"name" yaml:"name"`
	Amount int64  `json:"amount" yaml:"amount"`
}

// TopCategory returns the category with the highest amount, or a zero value
// when the snapshot has none.
func (s FinancialSnapshot) TopCategory() CategoryTotal {
	var top CategoryTotal
	for _, c := range s.Categories {
		if c.Amount > top.Amount {
			top = c
		}
	}
	return top
}
