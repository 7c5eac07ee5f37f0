package handlers

import "database/sql"

// normalizePhone normalizes phone number to international format (no leading '+')
// Returns digits like: 256700123456
func normalizePhone(phone string) string {
	digits := ""
	for _, char := range phone {
		if char >= '0' && char <= '9' {
			digits += string(char)
		}
	}

	// Handle Uganda phone numbers (expecting 9 local digits)
	if len(digits) == 9 && (digits[0] == '7' || digits[0] == '3') {
		return "256" + digits
	} else if len(digits) == 10 && digits[0] == '0' {
		return "256" + digits[1:]
	} else if len(digits) == 12 && digits[:3] == "256" {
		return digits
	}

	return ""
}

// dropRef wraps a drops.id for ledger reference columns. A zero id (no DB)
// becomes NULL.
func dropRef(id int) sql.NullInt64 {
	if id <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(id), Valid: true}
}
