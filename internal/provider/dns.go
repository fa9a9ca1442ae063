package provider

import (
	"context"
	"fmt"
	"strings"
)

// DNSResult holds the record checks reported for one sending address.
type DNSResult struct {
	SPF   bool
	DKIM  bool
	DMARC bool
}

// Verified is true only when all three records check out.
func (r DNSResult) Verified() bool {
	return r.SPF && r.DKIM && r.DMARC
}

// DNSChecker validates the authentication records of a domain or mailbox
// address.
type DNSChecker interface {
	Check(ctx context.Context, address string) (DNSResult, error)
}

var _ DNSChecker = StaticDNSChecker{}

// StaticDNSChecker answers every check with a fixed result. It stands in for
// real DNS verification.
type StaticDNSChecker struct {
	Result DNSResult
}

// NewPassingDNSChecker reports every record as valid.
func NewPassingDNSChecker() StaticDNSChecker {
	return StaticDNSChecker{Result: DNSResult{SPF: true, DKIM: true, DMARC: true}}
}

func (c StaticDNSChecker) Check(ctx context.Context, address string) (DNSResult, error) {
	if strings.TrimSpace(address) == "" {
		return DNSResult{}, fmt.Errorf("address is required")
	}
	if err := ctx.Err(); err != nil {
		return DNSResult{}, err
	}
	return c.Result, nil
}
