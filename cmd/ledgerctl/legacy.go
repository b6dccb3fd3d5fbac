package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/campreg/ledger"
	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/payment"
	"github.com/campreg/ledger/types"
)

// legacyColumns is the header of the legacy export. The two flag columns
// encode the event kind.
var legacyColumns = []string{
	"participant_id", "is_price_set", "is_payment", "value_cents", "description", "created_by", "created_at",
}

// readLegacy decodes every row before returning, so a single bad row
// rejects the whole file.
func readLegacy(r io.Reader) ([]*payment.Event, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(legacyColumns)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("legacy: read header: %w", err)
	}
	for i, col := range legacyColumns {
		if strings.TrimSpace(header[i]) != col {
			return nil, fmt.Errorf("legacy: column %d is %q, want %q", i+1, header[i], col)
		}
	}

	var events []*payment.Event
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("legacy: line %d: %w", line, err)
		}
		e, err := legacyEvent(rec)
		if err != nil {
			return nil, fmt.Errorf("legacy: line %d: %w", line, err)
		}
		events = append(events, e)
	}
	return events, nil
}

func legacyEvent(rec []string) (*payment.Event, error) {
	pid, err := ledger.ParseParticipantID(rec[0])
	if err != nil {
		return nil, err
	}
	isPriceSet, err := strconv.ParseBool(rec[1])
	if err != nil {
		return nil, fmt.Errorf("is_price_set: %w", err)
	}
	isPayment, err := strconv.ParseBool(rec[2])
	if err != nil {
		return nil, fmt.Errorf("is_payment: %w", err)
	}
	kind, err := payment.KindFromFlags(isPriceSet, isPayment)
	if err != nil {
		return nil, err
	}
	value, err := strconv.ParseInt(rec[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("value_cents: %w", err)
	}
	createdBy, err := ledger.ParseUserID(rec[5])
	if err != nil {
		return nil, fmt.Errorf("created_by: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339, rec[6])
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}

	return &payment.Event{
		ID:            id.NewPaymentEventID(),
		ParticipantID: pid,
		Kind:          kind,
		Value:         types.Cents(value),
		Description:   rec[4],
		CreatedBy:     createdBy,
		CreatedAt:     createdAt,
	}, nil
}
