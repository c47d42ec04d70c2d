// Package stripe verifies and parses provider webhook payloads into
// events the billing reconciler understands.
package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	billingdomain "github.com/smallbiznis/scriptly/internal/billing/domain"
)

var (
	ErrInvalidSignature = errors.New("invalid_webhook_signature")
	ErrInvalidPayload   = errors.New("invalid_webhook_payload")
)

// DefaultTolerance bounds how old a signed timestamp may be before the
// event is rejected as a possible replay.
const DefaultTolerance = 5 * time.Minute

// VerifySignature checks the Stripe-Signature header against the raw
// request body. The signed string is "<timestamp>.<payload>".
func VerifySignature(payload []byte, header, secret string, now time.Time) error {
	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	if age := now.Sub(time.Unix(timestamp, 0)); age > DefaultTolerance || age < -DefaultTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return fmt.Errorf("%w: no matching v1 signature", ErrInvalidSignature)
}

func parseSignatureHeader(header string) (int64, []string, error) {
	if strings.TrimSpace(header) == "" {
		return 0, nil, fmt.Errorf("%w: missing header", ErrInvalidSignature)
	}

	var timestamp int64 = -1
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp < 0 || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: malformed header", ErrInvalidSignature)
	}
	return timestamp, signatures, nil
}

type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object eventObject `json:"object"`
	} `json:"data"`
}

type eventObject struct {
	ID               string            `json:"id"`
	Customer         string            `json:"customer"`
	Subscription     string            `json:"subscription"`
	Status           string            `json:"status"`
	CurrentPeriodEnd int64             `json:"current_period_end"`
	Metadata         map[string]string `json:"metadata"`

	// Invoices carry subscription metadata one level down.
	SubscriptionDetails struct {
		Metadata map[string]string `json:"metadata"`
	} `json:"subscription_details"`
}

// ParseEvent decodes a verified webhook body. The owning subject is
// read from metadata.userId, set when the checkout session is created.
func ParseEvent(payload []byte) (billingdomain.ExternalEvent, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return billingdomain.ExternalEvent{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if envelope.ID == "" || envelope.Type == "" {
		return billingdomain.ExternalEvent{}, fmt.Errorf("%w: missing id or type", ErrInvalidPayload)
	}

	obj := envelope.Data.Object
	event := billingdomain.ExternalEvent{
		ExternalID:     envelope.ID,
		Type:           envelope.Type,
		SubjectID:      subjectFrom(obj),
		ProviderStatus: obj.Status,
		CustomerID:     obj.Customer,
		RawPayload:     payload,
	}

	if obj.CurrentPeriodEnd > 0 {
		end := time.Unix(obj.CurrentPeriodEnd, 0).UTC()
		event.CurrentPeriodEnd = &end
	}

	// Subscription objects are identified by their own id; invoices
	// reference the subscription they bill.
	if strings.HasPrefix(envelope.Type, "customer.subscription.") {
		event.SubscriptionID = obj.ID
	} else {
		event.SubscriptionID = obj.Subscription
	}

	return event, nil
}

func subjectFrom(obj eventObject) string {
	if id := obj.Metadata["userId"]; id != "" {
		return id
	}
	return obj.SubscriptionDetails.Metadata["userId"]
}
