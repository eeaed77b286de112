package installment

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Installments is a slice of Installment that implements GORM Scanner/Valuer
// for JSONB storage
type Installments []Installment

// Value implements driver.Valuer interface for GORM to store as JSONB
func (l Installments) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (l *Installments) Scan(value interface{}) error {
	if value == nil {
		*l = Installments{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Installments: unsupported type")
	}

	if len(bytes) == 0 {
		*l = Installments{}
		return nil
	}

	return json.Unmarshal(bytes, l)
}
