package accounts

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/VaibhavRohilla/plinko/internal/models"
)

// Ledger account types. Player money lives on per-player accounts; every
// bet and payout is a transfer against the house account so the books
// always balance.
const (
	AccountPlayer = "player"
	AccountHouse  = "house"
)

// GetOrCreateAccount returns an account for the given owner and type,
// creating it if missing.
func GetOrCreateAccount(db *sqlx.DB, accountType string, ownerPlayerID *int) (*models.Account, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}

	var a models.Account
	if ownerPlayerID == nil {
		if err := db.Get(&a, `SELECT id, account_type, owner_player_id, balance, created_at, updated_at FROM accounts WHERE account_type=$1 AND owner_player_id IS NULL`, accountType); err == nil {
			return &a, nil
		}
		if _, err := db.Exec(`INSERT INTO accounts (account_type, balance, created_at, updated_at) VALUES ($1, 0, NOW(), NOW())`, accountType); err != nil {
			return nil, err
		}
		if err := db.Get(&a, `SELECT id, account_type, owner_player_id, balance, created_at, updated_at FROM accounts WHERE account_type=$1 AND owner_player_id IS NULL`, accountType); err != nil {
			return nil, err
		}
		return &a, nil
	}

	if err := db.Get(&a, `SELECT id, account_type, owner_player_id, balance, created_at, updated_at FROM accounts WHERE account_type=$1 AND owner_player_id=$2`, accountType, *ownerPlayerID); err == nil {
		return &a, nil
	}
	if _, err := db.Exec(`INSERT INTO accounts (account_type, owner_player_id, balance, created_at, updated_at) VALUES ($1, $2, 0, NOW(), NOW())`, accountType, *ownerPlayerID); err != nil {
		return nil, err
	}
	if err := db.Get(&a, `SELECT id, account_type, owner_player_id, balance, created_at, updated_at FROM accounts WHERE account_type=$1 AND owner_player_id=$2`, accountType, *ownerPlayerID); err != nil {
		return nil, err
	}
	return &a, nil
}

// Transfer performs a single debit/credit between accounts within an
// existing tx. Both accounts are locked FOR UPDATE, balances checked and
// updated, and an account_transactions row inserted.
func Transfer(tx *sqlx.Tx, debitAccountID, creditAccountID int, amount float64, referenceType string, referenceID sql.NullInt64, description string) error {
	if tx == nil {
		return fmt.Errorf("tx is nil")
	}
	if amount < 0 {
		return fmt.Errorf("negative transfer amount %f", amount)
	}

	var accs []models.Account
	if err := tx.Select(&accs, `SELECT id, account_type, owner_player_id, balance, created_at, updated_at FROM accounts WHERE id IN ($1,$2) FOR UPDATE`, debitAccountID, creditAccountID); err != nil {
		return err
	}

	var debit, credit *models.Account
	for i := range accs {
		if accs[i].ID == debitAccountID {
			debit = &accs[i]
		}
		if accs[i].ID == creditAccountID {
			credit = &accs[i]
		}
	}
	if debit == nil || credit == nil {
		return fmt.Errorf("account not found for transfer")
	}

	// Player accounts may never go negative; the house account may.
	if debit.AccountType == AccountPlayer && debit.Balance < amount {
		return fmt.Errorf("insufficient funds in account %d", debitAccountID)
	}

	if _, err := tx.Exec(`UPDATE accounts SET balance = balance - $1, updated_at = NOW() WHERE id = $2`, amount, debitAccountID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE id = $2`, amount, creditAccountID); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO account_transactions (debit_account_id, credit_account_id, amount, reference_type, reference_id, description, created_at) VALUES ($1,$2,$3,$4,$5,$6,NOW())`,
		debitAccountID, creditAccountID, amount, referenceType, referenceID, description,
	); err != nil {
		return err
	}
	return nil
}

// PlaceBet moves the stake from the player to the house.
func PlaceBet(db *sqlx.DB, playerID int, amount float64, dropID sql.NullInt64) error {
	return settle(db, playerID, amount, dropID, "bet", true)
}

// CreditPayout moves a winning payout from the house to the player.
func CreditPayout(db *sqlx.DB, playerID int, amount float64, dropID sql.NullInt64) error {
	return settle(db, playerID, amount, dropID, "payout", false)
}

// RefundBet returns a voided drop's stake to the player.
func RefundBet(db *sqlx.DB, playerID int, amount float64, dropID sql.NullInt64) error {
	return settle(db, playerID, amount, dropID, "refund", false)
}

// Deposit credits a player's balance from the house (top-up; payments are
// out of scope so this is the only inbound money path).
func Deposit(db *sqlx.DB, playerID int, amount float64) error {
	return settle(db, playerID, amount, sql.NullInt64{}, "deposit", false)
}

func settle(db *sqlx.DB, playerID int, amount float64, dropID sql.NullInt64, refType string, playerPays bool) error {
	if amount == 0 {
		return nil
	}
	playerAcc, err := GetOrCreateAccount(db, AccountPlayer, &playerID)
	if err != nil {
		return fmt.Errorf("player account: %w", err)
	}
	houseAcc, err := GetOrCreateAccount(db, AccountHouse, nil)
	if err != nil {
		return fmt.Errorf("house account: %w", err)
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	from, to := houseAcc.ID, playerAcc.ID
	if playerPays {
		from, to = playerAcc.ID, houseAcc.ID
	}
	if err := Transfer(tx, from, to, amount, refType, dropID, refType); err != nil {
		return err
	}
	return tx.Commit()
}

// Balance returns a player's current ledger balance.
func Balance(db *sqlx.DB, playerID int) (float64, error) {
	acc, err := GetOrCreateAccount(db, AccountPlayer, &playerID)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}
