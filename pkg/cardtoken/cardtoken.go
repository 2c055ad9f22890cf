package cardtoken

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Brand values follow the card-network vocabulary exposed to clients.
const (
	BrandVisa       = "VISA"
	BrandMastercard = "MASTERCARD"
	BrandAmex       = "AMEX"
	BrandDiners     = "DINERS"
	BrandDiscover   = "DISCOVER"
	BrandJCB        = "JCB"
	BrandUnknown    = "DESCONHECIDA"
)

var brandPatterns = []struct {
	brand string
	re    *regexp.Regexp
}{
	{BrandVisa, regexp.MustCompile(`^4[0-9]{6,}$`)},
	{BrandMastercard, regexp.MustCompile(`^5[1-5][0-9]{5,}$`)},
	{BrandAmex, regexp.MustCompile(`^3[47][0-9]{5,}$`)},
	{BrandDiners, regexp.MustCompile(`^3(?:0[0-5]|[68][0-9])[0-9]{4,}$`)},
	{BrandDiscover, regexp.MustCompile(`^6(?:011|5[0-9]{2})[0-9]{3,}$`)},
	{BrandJCB, regexp.MustCompile(`^(?:2131|1800|35[0-9]{3})[0-9]{11}$`)},
}

// Token is the non-reversible artifact handed back in place of card data.
type Token struct {
	Value string
	Last4 string
	Brand string
}

// Tokenizer derives opaque card tokens under a keyed hash. The raw number
// is never stored or logged; the token cannot be reversed to it.
type Tokenizer struct {
	secret []byte
}

func NewTokenizer(secret string) *Tokenizer {
	return &Tokenizer{secret: []byte(secret)}
}

// Tokenize hashes the card number with a fresh random salt and the supplied
// context id (the payment id), so identical cards never share a token.
func (t *Tokenizer) Tokenize(number, contextID string) (Token, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return Token{}, fmt.Errorf("cardtoken: salt: %w", err)
	}

	mac := hmac.New(sha256.New, t.secret)
	fmt.Fprintf(mac, "%s|%s|%s", number, hex.EncodeToString(salt), contextID)

	return Token{
		Value: "tok_" + hex.EncodeToString(mac.Sum(nil)),
		Last4: last4(number),
		Brand: DetectBrand(number),
	}, nil
}

// DetectBrand matches the cleaned number prefix against known network
// numbering schemes. Unmatched prefixes yield DESCONHECIDA.
func DetectBrand(number string) string {
	n := clean(number)
	for _, p := range brandPatterns {
		if p.re.MatchString(n) {
			return p.brand
		}
	}
	return BrandUnknown
}

func last4(number string) string {
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) <= 4 {
		return d
	}
	return d[len(d)-4:]
}

func clean(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(number)
}
