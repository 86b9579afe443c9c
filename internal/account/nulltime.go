package account

import (
	"database/sql"
	"time"
)

type nullTime struct {
	sql.NullTime
}

func (n nullTime) ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}
