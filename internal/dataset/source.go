// Package dataset reads the nested customers/loans source document and
// (re)initialises the backing tables from it.
package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"loan-feature-engine/internal/domain/customer"
	"loan-feature-engine/internal/domain/loan"
	"loan-feature-engine/internal/frame"
	"loan-feature-engine/internal/pkg/apperrors"
)

// ErrMixedLoanIDs is returned when only some loans of a document carry an identifier.
var ErrMixedLoanIDs = fmt.Errorf("%w: loans must all carry an identifier or none", apperrors.ErrParse)

// CheckLoanIDs reports whether loans have to be numbered by position: true when none
// of total loans has an identifier, an error when only some of them do.
func CheckLoanIDs(withID, total int) (bool, error) {
	switch {
	case withID == 0:
		return true, nil
	case withID != total:
		return false, fmt.Errorf("%w: %d of %d loans have no loan_id", ErrMixedLoanIDs, total-withID, total)
	}
	return false, nil
}

// Record is one nested source entry: a customer and the loans it embeds.
type Record struct {
	Customer *customer.Customer
	Loans    []*loan.Loan
}

// ReadSource returns the raw objects held under the "data" key of the JSON file at path.
// Numbers are kept as json.Number.
func ReadSource(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening source %q: %w", apperrors.ErrParse, path, err)
	}
	defer f.Close()
	return DecodeSource(f)
}

func DecodeSource(r io.Reader) ([]map[string]any, error) {
	var doc struct {
		Data []map[string]any `json:"data"`
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decoding source: %w", apperrors.ErrParse, err)
	}
	if doc.Data == nil {
		return nil, fmt.Errorf("%w: source has no %q array", apperrors.ErrParse, "data")
	}
	return doc.Data, nil
}

// LoansOf returns the embedded loan objects of a raw customer. A missing key means no loans.
func LoansOf(raw map[string]any) ([]map[string]any, error) {
	v, ok := raw["loans"]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: loans must be an array, got %T", apperrors.ErrParse, v)
	}
	out := make([]map[string]any, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: loan %d must be an object, got %T", apperrors.ErrParse, i, item)
		}
		out[i] = m
	}
	return out, nil
}

// Field returns the first present value among the given aliases.
func Field(raw map[string]any, names ...string) (any, bool) {
	for _, n := range names {
		if v, ok := raw[n]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// DecodeRecords converts raw source objects into validated entities. A customer's
// income is read from its first loan and falls back to its own field. When no loan
// has an identifier they are numbered by their position across the whole document.
func DecodeRecords(raw []map[string]any) ([]Record, error) {
	nested := make([][]map[string]any, len(raw))
	withID, total := 0, 0
	for i, rc := range raw {
		loans, err := LoansOf(rc)
		if err != nil {
			return nil, fmt.Errorf("customer %d: %w", i, err)
		}
		for _, rl := range loans {
			if _, ok := Field(rl, "loan_id", "id"); ok {
				withID++
			}
		}
		total += len(loans)
		nested[i] = loans
	}
	positional, err := CheckLoanIDs(withID, total)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(raw))
	position := 0
	for i, rc := range raw {
		loans := nested[i]

		idVal, ok := Field(rc, "customer_ID", "customer_id", "id")
		if !ok {
			return nil, fmt.Errorf("%w: customer %d has no identifier", apperrors.ErrParse, i)
		}
		id, err := toInt(idVal)
		if err != nil {
			return nil, apperrors.NewCoercionError("customer_id", i, idVal, err)
		}

		incomeVal, ok := incomeOf(rc, loans)
		if !ok {
			return nil, fmt.Errorf("%w: customer %d has no annual_income", apperrors.ErrParse, id)
		}
		income, err := frame.ToFloat(incomeVal)
		if err != nil {
			return nil, apperrors.NewCoercionError("annual_income", i, incomeVal, err)
		}
		cust, err := customer.NewCustomer(id, income)
		if err != nil {
			return nil, fmt.Errorf("customer %d: %w", id, err)
		}

		rec := Record{Customer: cust, Loans: make([]*loan.Loan, 0, len(loans))}
		for j, rl := range loans {
			var fallback any
			if positional {
				fallback = int64(position)
			}
			position++
			l, err := decodeLoan(rl, id, fallback)
			if err != nil {
				return nil, fmt.Errorf("customer %d loan %d: %w", id, j, err)
			}
			rec.Loans = append(rec.Loans, l)
		}
		records = append(records, rec)
	}
	return records, nil
}

func incomeOf(rc map[string]any, loans []map[string]any) (any, bool) {
	if len(loans) > 0 {
		if v, ok := Field(loans[0], "annual_income"); ok {
			return v, true
		}
	}
	return Field(rc, "annual_income")
}

func decodeLoan(rl map[string]any, customerID int64, position any) (*loan.Loan, error) {
	idVal, ok := Field(rl, "loan_id", "id")
	if !ok {
		idVal = position
	}
	id, err := toInt(idVal)
	if err != nil {
		return nil, apperrors.NewCoercionError("loan_id", 0, idVal, err)
	}
	if owner, ok := Field(rl, "customer_ID", "customer_id"); ok && frame.KeyOf(owner) != frame.KeyOf(customerID) {
		return nil, fmt.Errorf("%w: loan %d names customer %v inside customer %d", apperrors.ErrParse, id, owner, customerID)
	}

	date, err := frame.ParseDate(rl["loan_date"], true)
	if err != nil {
		return nil, apperrors.NewCoercionError("loan_date", 0, rl["loan_date"], err)
	}
	amount, err := frame.ToFloat(rl["amount"])
	if err != nil {
		return nil, apperrors.NewCoercionError("amount", 0, rl["amount"], err)
	}
	fee, err := frame.ToFloat(rl["fee"])
	if err != nil {
		return nil, apperrors.NewCoercionError("fee", 0, rl["fee"], err)
	}
	return loan.NewLoan(id, customerID, date, amount, frame.Format(rl["term"]), fee, frame.Format(rl["loan_status"]))
}

func toInt(v any) (int64, error) {
	f, err := frame.ToFloat(v)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("%v is not an integer", v)
	}
	return int64(f), nil
}
