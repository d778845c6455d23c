package wallet

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// IsAddress reports whether s is a syntactically valid account address.
//
// The rules follow the usual wallet convention: a 0x-prefixed, 40 hex digit
// string where all-lower and all-upper case forms are accepted as is, while a
// mixed-case string must carry a correct EIP-55 checksum.
func IsAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	if !common.IsHexAddress(s) {
		return false
	}

	digits := s[2:]
	if digits == strings.ToLower(digits) || digits == strings.ToUpper(digits) {
		return true
	}
	return common.HexToAddress(s).Hex() == "0x"+digits
}
