package wire

import (
	"encoding/json"
	"fmt"

	"github.com/iliyamo/sportfield-booking/internal/model"
)

type rawWindow struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type rawFieldAvailability struct {
	FieldID      flexID      `json:"fieldId"`
	FieldIDSnake flexID      `json:"field_id"`
	Field        *idRef      `json:"field"`
	Slots        []rawWindow `json:"availableTimeSlots"`
	SlotsSnake   []rawWindow `json:"available_time_slots"`
	TimeSlots    []rawWindow `json:"timeSlots"`
}

// DecodeAvailability normalizes an availability query response, or the data
// part of a realtime update, into canonical FieldAvailability items.
func DecodeAvailability(body []byte) ([]model.FieldAvailability, error) {
	data, err := unwrap(body)
	if err != nil {
		return nil, err
	}
	return decodeAvailabilityData(data)
}

func decodeAvailabilityData(data json.RawMessage) ([]model.FieldAvailability, error) {
	list, err := items(data, "fields", "availability")
	if err != nil {
		return nil, err
	}
	out := make([]model.FieldAvailability, 0, len(list))
	for _, raw := range list {
		var item rawFieldAvailability
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		fa := model.FieldAvailability{FieldID: pickID(item.FieldID, item.FieldIDSnake, refID(item.Field))}
		slots := item.Slots
		if slots == nil {
			slots = item.SlotsSnake
		}
		if slots == nil {
			slots = item.TimeSlots
		}
		for _, w := range slots {
			start, err := parseTime(firstNonEmpty(w.Start, w.StartTime))
			if err != nil {
				return nil, err
			}
			end, err := parseTime(firstNonEmpty(w.End, w.EndTime))
			if err != nil {
				return nil, err
			}
			fa.Windows = append(fa.Windows, model.AvailabilityWindow{Start: start, End: end})
		}
		out = append(out, fa)
	}
	return out, nil
}

// DecodeFieldAvailability normalizes the alternate per-field endpoint.  It
// answers with the same shapes as the branch endpoint; the item for fieldID
// is returned, or the first item when the backend does not echo ids.
func DecodeFieldAvailability(body []byte, fieldID uint64) (model.FieldAvailability, error) {
	list, err := DecodeAvailability(body)
	if err != nil {
		return model.FieldAvailability{}, err
	}
	for _, fa := range list {
		if fa.FieldID == fieldID {
			return fa, nil
		}
	}
	if len(list) == 1 && list[0].FieldID == 0 {
		fa := list[0]
		fa.FieldID = fieldID
		return fa, nil
	}
	return model.FieldAvailability{FieldID: fieldID}, fmt.Errorf("%w: no availability for field %d", ErrMalformed, fieldID)
}

// Update is a realtime availability push for one branch and date.
type Update struct {
	BranchID uint64                    `json:"branchId"`
	Date     string                    `json:"date"`
	Data     []model.FieldAvailability `json:"data"`
}

type rawUpdate struct {
	BranchID      flexID          `json:"branchId"`
	BranchIDSnake flexID          `json:"branch_id"`
	Date          string          `json:"date"`
	Data          json.RawMessage `json:"data"`
}

// DecodeUpdate normalizes a realtime update payload.
func DecodeUpdate(body []byte) (Update, error) {
	var raw rawUpdate
	if err := json.Unmarshal(body, &raw); err != nil {
		return Update{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	data, err := DecodeAvailability(raw.Data)
	if err != nil {
		return Update{}, err
	}
	return Update{BranchID: pickID(raw.BranchID, raw.BranchIDSnake), Date: raw.Date, Data: data}, nil
}

// EncodeUpdate renders an update in the canonical shape.
func EncodeUpdate(u Update) ([]byte, error) {
	if u.Data == nil {
		u.Data = []model.FieldAvailability{}
	}
	return json.Marshal(u)
}
