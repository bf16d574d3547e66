package utils

import (
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/mwangi2684/coachmarket/models"
)

const receiptNumberLength = 10
const letterBytes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateUniqueReceiptNumber returns a fresh RCP- receipt number not yet
// used by any purchase. Runs inside the purchase-creation transaction.
func GenerateUniqueReceiptNumber(tx *gorm.DB) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		b := make([]byte, receiptNumberLength)
		for i := range b {
			b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		code := "RCP-" + string(b)

		var purchase models.Purchase
		err := tx.Where("receipt_number = ?", code).First(&purchase).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return code, nil
			}
			return "", err
		}
	}
}
