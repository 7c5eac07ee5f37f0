package models

import (
	"database/sql"
	"time"
)

// Player represents a user in the system.
type Player struct {
	ID          int          `db:"id" json:"id"`
	PhoneNumber string       `db:"phone_number" json:"phone_number"`
	DisplayName string       `db:"display_name" json:"display_name"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	TotalDrops  int          `db:"total_drops" json:"total_drops"`
	TotalWagered float64     `db:"total_wagered" json:"total_wagered"`
	TotalWon    float64      `db:"total_won" json:"total_won"`
	IsActive    bool         `db:"is_active" json:"is_active"`
	LastActive  sql.NullTime `db:"last_active" json:"last_active,omitempty"`
}

// Account is a ledger account. Player accounts carry owner_player_id; the
// house account has none.
type Account struct {
	ID            int           `db:"id" json:"id"`
	AccountType   string        `db:"account_type" json:"account_type"`
	OwnerPlayerID sql.NullInt64 `db:"owner_player_id" json:"owner_player_id,omitempty"`
	Balance       float64       `db:"balance" json:"balance"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// AccountTransaction is one leg-pair of a ledger transfer.
type AccountTransaction struct {
	ID              int           `db:"id" json:"id"`
	DebitAccountID  int           `db:"debit_account_id" json:"debit_account_id"`
	CreditAccountID int           `db:"credit_account_id" json:"credit_account_id"`
	Amount          float64       `db:"amount" json:"amount"`
	ReferenceType   string        `db:"reference_type" json:"reference_type"`
	ReferenceID     sql.NullInt64 `db:"reference_id" json:"reference_id,omitempty"`
	Description     string        `db:"description" json:"description,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
}

// Drop is a persisted ball drop and its outcome. Voided drops keep a NULL
// bin and a zero payout with status 'void'.
type Drop struct {
	ID         int           `db:"id" json:"id"`
	PlayerID   int           `db:"player_id" json:"player_id"`
	Rows       int           `db:"rows" json:"rows"`
	Risk       string        `db:"risk" json:"risk"`
	BetAmount  float64       `db:"bet_amount" json:"bet_amount"`
	TargetBin  sql.NullInt64 `db:"target_bin" json:"target_bin,omitempty"`
	Bin        sql.NullInt64 `db:"bin" json:"bin,omitempty"`
	Multiplier float64       `db:"multiplier" json:"multiplier"`
	Payout     float64       `db:"payout" json:"payout"`
	StartX     float64       `db:"start_x" json:"start_x"`
	Steered    bool          `db:"steered" json:"steered"`
	Status     string        `db:"status" json:"status"` // pending, settled, void
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	SettledAt  sql.NullTime  `db:"settled_at" json:"settled_at,omitempty"`
}

// Operator is an operations account allowed to request targeted drops.
type Operator struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	TokenHash string    `db:"token_hash" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
