package tokens

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// MinRefreshSecretBytes es el mínimo de entropía exigido para el componente
// aleatorio del refresh token.
const MinRefreshSecretBytes = 16

// GenerateRefreshSecret genera el componente aleatorio del refresh token,
// hex-encoded. Este valor viaja como claim "jti" y se persiste en el
// auth record para validar rotación.
func GenerateRefreshSecret(nBytes int) (string, error) {
	if nBytes < MinRefreshSecretBytes {
		return "", fmt.Errorf("refresh secret requiere al menos %d bytes, pedido %d", MinRefreshSecretBytes, nBytes)
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
