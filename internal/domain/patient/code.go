package patient

import (
	"context"
	"errors"
	"math/rand"
	"regexp"
	"strconv"
)

// ErrCodeSpaceExhausted is returned when no free patient code was found
// within the attempt bound. With 26^3 * 900 possible codes this means the
// tenant is saturated or the uniqueness check is broken.
var ErrCodeSpaceExhausted = errors.New("patient code space exhausted")

// codeAttempts bounds the generate-and-check loop.
const codeAttempts = 1000

// CodePattern matches a well-formed patient code: three uppercase letters
// followed by a three-digit number in [100, 999].
var CodePattern = regexp.MustCompile(`^[A-Z]{3}[1-9][0-9]{2}$`)

// CodeChecker reports whether a candidate code is already taken.
type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

func candidateCode() string {
	letters := make([]byte, 3)
	for i := range letters {
		letters[i] = byte('A' + rand.Intn(26))
	}
	return string(letters) + strconv.Itoa(100+rand.Intn(900))
}

// GenerateCode returns a fresh patient code not present in storage.
// Candidates are drawn at random and checked for collisions; the loop is
// bounded so a saturated code space fails instead of spinning forever.
func GenerateCode(ctx context.Context, checker CodeChecker) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code := candidateCode()
		taken, err := checker.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
