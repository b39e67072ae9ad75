package repository

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const nextSequenceSQL = `
INSERT INTO code_sequences (company_id, scope, value) VALUES (?, ?, 1)
ON CONFLICT (company_id, scope) DO UPDATE SET value = code_sequences.value + 1
RETURNING value`

// nextSequence atomically bumps the counter of (companyID, scope). Run it on
// the transaction that inserts the coded row so a rollback gives the number back.
func nextSequence(tx *gorm.DB, companyID uuid.UUID, scope string) (int64, error) {
	var value int64
	if err := tx.Raw(nextSequenceSQL, companyID, scope).Scan(&value).Error; err != nil {
		return 0, fmt.Errorf("allocate %s code: %w", scope, err)
	}
	return value, nil
}
