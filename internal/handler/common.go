package handler // handler defines http handlers

import (
	"errors"  // errors provides sentinel values used in getUserID
	"strconv" // strconv converts strings to numeric types
	"time"

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/iliyamo/sportfield-booking/internal/model"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64: // numeric JWT subjects decode as float64
		if t > 0 {
			return uint64(t), nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pairBody is the JSON body selecting a branch and date.
type pairBody struct {
	BranchID uint64 `json:"branch_id"`
	Date     string `json:"date"`
}

// pair validates the body.  Date must be a calendar date, YYYY-MM-DD.
func (b pairBody) pair() (model.Pair, bool) {
	if b.BranchID == 0 {
		return model.Pair{}, false
	}
	if _, err := time.Parse("2006-01-02", b.Date); err != nil {
		return model.Pair{}, false
	}
	return model.Pair{BranchID: b.BranchID, Date: b.Date}, true
}

func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}
