// Package ipaddr converts IPv4 addresses between dotted text and their
// 32-bit integer form.
package ipaddr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"
)

var (
	// ErrInvalidAddress is returned when text is not a canonical dotted IPv4 address
	ErrInvalidAddress = errors.New("invalid IP address format")

	// ErrOutOfRange is returned when an integer does not fit an unsigned 32-bit address
	ErrOutOfRange = errors.New("IP address out of range")
)

// Encode converts a dotted IPv4 address to its integer form.
//
// Exactly four components are required and every component must be a
// decimal number between 0 and 255.
//
// Example: "1.1.1.1" -> 16843009
func Encode(text string) (uint32, error) {
	parts := strings.Split(text, ".")
	if len(parts) != net.IPv4len {
		return 0, fmt.Errorf("%w: %q has %d components, want 4", ErrInvalidAddress, text, len(parts))
	}

	var octets [net.IPv4len]byte
	for i, part := range parts {
		octet, err := parseOctet(part)
		if err != nil {
			return 0, fmt.Errorf("%w: %q component %d: %v", ErrInvalidAddress, text, i+1, err)
		}
		octets[i] = octet
	}

	return binary.BigEndian.Uint32(octets[:]), nil
}

// parseOctet accepts 1-3 ASCII digits with a value of at most 255
func parseOctet(part string) (byte, error) {
	if part == "" {
		return 0, errors.New("empty")
	}
	if len(part) > 3 {
		return 0, errors.New("too long")
	}
	for _, c := range part {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("unexpected character %q", c)
		}
	}

	value, err := strconv.Atoi(part)
	if err != nil {
		return 0, err
	}
	if value > math.MaxUint8 {
		return 0, fmt.Errorf("%d exceeds 255", value)
	}
	return byte(value), nil
}

// Decode converts an integer address back to dotted text.
// Values outside the unsigned 32-bit range are rejected.
//
// Example: 4294967295 -> "255.255.255.255"
func Decode(n int64) (string, error) {
	ip, err := ToUint32(n)
	if err != nil {
		return "", err
	}
	return FromUint32(ip), nil
}

// ToUint32 narrows a 64-bit integer to an address, rejecting values that do not fit
func ToUint32(n int64) (uint32, error) {
	if n < 0 || n > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, n)
	}
	return uint32(n), nil
}

// FromUint32 formats an address as four dot-separated octets
func FromUint32(ip uint32) string {
	var b strings.Builder
	b.Grow(15)
	for shift := 24; shift >= 0; shift -= 8 {
		b.WriteString(strconv.Itoa(int((ip >> shift) & 0xFF)))
		if shift > 0 {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// ToNetIP converts an address to a net.IP for libraries that expect one
func ToNetIP(ip uint32) net.IP {
	out := make(net.IP, net.IPv4len)
	binary.BigEndian.PutUint32(out, ip)
	return out
}
