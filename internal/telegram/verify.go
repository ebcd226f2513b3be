package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// webAppDataKey es el literal que el protocolo de Telegram exige como clave
// del primer paso de derivación. No es un secreto.
const webAppDataKey = "WebAppData"

// DefaultMaxAge es la edad máxima por defecto de un initData.
const DefaultMaxAge = 24 * time.Hour

// Verifier recomputa el HMAC de initData con el secreto derivado del bot token.
type Verifier struct {
	secret []byte
	maxAge time.Duration

	// now es inyectable para tests de expiración.
	now func() time.Time
}

// NewVerifier deriva el secreto de verificación a partir del bot token.
//
// La derivación es de dos pasos y está fijada por el protocolo del host:
//
//	secret    = HMAC_SHA256(key="WebAppData", msg=botToken)
//	signature = HMAC_SHA256(key=secret, msg=dataCheckString)
//
// No sustituir por un único paso de HMAC: el resultado no coincide con lo
// que firma el backend de Telegram.
func NewVerifier(botToken string, maxAge time.Duration) *Verifier {
	mac := hmac.New(sha256.New, []byte(webAppDataKey))
	mac.Write([]byte(botToken))
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Verifier{
		secret: mac.Sum(nil),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Verify valida estructura, firma y edad del initData, en ese orden.
// Retorna ErrMalformedPayload, ErrSignatureInvalid o ErrPayloadExpired.
func (v *Verifier) Verify(rawInitData string) (*VerifiedInitData, error) {
	parsed, err := parseInitData(rawInitData)
	if err != nil {
		return nil, err
	}

	if v.computeHash(parsed.pairs) != parsed.hash {
		return nil, ErrSignatureInvalid
	}

	// Expiración después de la firma: un payload viejo pero bien firmado
	// se reporta como expirado, no como forjado.
	if v.now().UTC().Sub(parsed.authDate) > v.maxAge {
		return nil, ErrPayloadExpired
	}

	return &VerifiedInitData{
		User:     parsed.user,
		AuthDate: parsed.authDate,
		QueryID:  parsed.queryID,
		RawUser:  parsed.rawUser,
	}, nil
}

// computeHash arma el data-check-string (k=v ordenado por clave, unido con
// '\n', sin el campo hash) y lo firma con el secreto derivado.
func (v *Verifier) computeHash(pairs map[string]string) string {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(pairs[k])
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}
