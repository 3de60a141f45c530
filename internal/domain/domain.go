package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidPayload = errors.New("invalid payload")

var validate = validator.New()

type Advertisement struct {
	ID          int64     `json:"id"`
	Header      string    `json:"header"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Owner       int64     `json:"owner"`
}

type AdvertisementInput struct {
	Header      *string `json:"header" validate:"required"`
	Description *string `json:"description"`
	Owner       *int64  `json:"owner" validate:"required"`
}

func DecodeAdvertisementInput(payload []byte) (*AdvertisementInput, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()

	var input AdvertisementInput
	if err := dec.Decode(&input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrInvalidPayload)
	}

	if err := validate.Struct(&input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			missing := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				missing = append(missing, strings.ToLower(fe.Field()))
			}
			return nil, fmt.Errorf("%w: missing required field(s): %s", ErrInvalidPayload, strings.Join(missing, ", "))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return &input, nil
}

func (in *AdvertisementInput) Advertisement() *Advertisement {
	return &Advertisement{
		Header:      *in.Header,
		Description: in.Description,
		Owner:       *in.Owner,
	}
}

// AdvertisementPatch holds the fields present in an update body.
// DescriptionSet distinguishes an explicit null from an absent key.
type AdvertisementPatch struct {
	Header         *string
	Description    *string
	DescriptionSet bool
	Owner          *int64
}

func (p *AdvertisementPatch) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("body must be a JSON object")
	}

	var unknown []string
	for key := range fields {
		switch key {
		case "header", "description", "owner":
		default:
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown field(s): %s", strings.Join(unknown, ", "))
	}

	if raw, ok := fields["header"]; ok {
		if isNull(raw) {
			return errors.New("header cannot be null")
		}
		var header string
		if err := json.Unmarshal(raw, &header); err != nil {
			return fmt.Errorf("header: %w", err)
		}
		p.Header = &header
	}

	if raw, ok := fields["description"]; ok {
		p.DescriptionSet = true
		if !isNull(raw) {
			var description string
			if err := json.Unmarshal(raw, &description); err != nil {
				return fmt.Errorf("description: %w", err)
			}
			p.Description = &description
		}
	}

	if raw, ok := fields["owner"]; ok {
		if isNull(raw) {
			return errors.New("owner cannot be null")
		}
		var owner int64
		if err := json.Unmarshal(raw, &owner); err != nil {
			return fmt.Errorf("owner: %w", err)
		}
		p.Owner = &owner
	}

	return nil
}

func DecodeAdvertisementPatch(payload []byte) (*AdvertisementPatch, error) {
	var patch AdvertisementPatch
	if err := json.Unmarshal(payload, &patch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &patch, nil
}

func (p *AdvertisementPatch) Apply(ad *Advertisement) {
	if p.Header != nil {
		ad.Header = *p.Header
	}
	if p.DescriptionSet {
		ad.Description = p.Description
	}
	if p.Owner != nil {
		ad.Owner = *p.Owner
	}
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
