package ton

import (
	"bytes"
	"strings"

	"github.com/xssnick/tonutils-go/address"
)

// Accepts both user friendly and raw (workchain:hex) forms
func ParseAddress(s string) (*address.Address, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ":") {
		return address.ParseRawAddr(s)
	}
	return address.ParseAddr(s)
}

func format(a *address.Address, bounce, testnet bool) string {
	out := address.NewAddress(0, byte(a.Workchain()), a.Data())
	out.SetBounce(bounce)
	out.SetTestnetOnly(testnet)
	return out.String()
}

// Non-bounceable form, used for wallets of people
func ToUser(a *address.Address, testnet bool) string {
	return format(a, false, testnet)
}

// Bounceable form, used for contracts
func ToContract(a *address.Address, testnet bool) string {
	return format(a, true, testnet)
}

// Same as ToUser, for addresses received as strings
func ToUserString(s string, testnet bool) (string, error) {
	a, err := ParseAddress(s)
	if err != nil {
		return "", err
	}
	return ToUser(a, testnet), nil
}

// Same as ToContract, for addresses received as strings
func ToContractString(s string, testnet bool) (string, error) {
	a, err := ParseAddress(s)
	if err != nil {
		return "", err
	}
	return ToContract(a, testnet), nil
}

// Compares workchain and hash, ignoring flags of the user friendly form.
// Strings that can't be parsed are compared verbatim.
func SameAddress(a, b string) bool {
	if a == b {
		return true
	}

	x, err := ParseAddress(a)
	if err != nil {
		return false
	}
	y, err := ParseAddress(b)
	if err != nil {
		return false
	}

	return x.Workchain() == y.Workchain() && bytes.Equal(x.Data(), y.Data())
}
