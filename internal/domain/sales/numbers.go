// internal/domain/sales/numbers.go
package sales

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// allocateNumber hands out the next document number for a scope ("invoice"
// or "return") on the given day, formatted PREFIX-YYYYMMDD-NNNN. It must run
// inside the transaction that persists the document so an aborted sale never
// burns a visible gap.
func allocateNumber(tx *gorm.DB, scope, prefix string, now time.Time) (string, error) {
	day := now.Format("20060102")

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_seq": gorm.Expr("last_seq + 1")}),
	}).Create(&DocumentCounter{Scope: scope, Day: day, LastSeq: 1}).Error
	if err != nil {
		return "", fmt.Errorf("failed to allocate %s number: %w", scope, err)
	}

	var counter DocumentCounter
	if err := tx.Where("scope = ? AND day = ?", scope, day).First(&counter).Error; err != nil {
		return "", fmt.Errorf("failed to read %s counter: %w", scope, err)
	}

	return fmt.Sprintf("%s-%s-%04d", prefix, day, counter.LastSeq), nil
}
