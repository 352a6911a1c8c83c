// Command djpass generates the DJ credential for the voting backend.
// It prints the bcrypt hash of the given password (or a generated one) as
// .env lines, plus a fresh JWT secret when none is configured.
//
// Usage:
//
//	djpass [password]
package main

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/tyler-smith/go-bip39/wordlists"

	"github.com/setplanner/backend/internal/crypto"
)

// passwordWords is how many wordlist words make up a generated password.
// Three words from the 2048-word list plus a two-digit number is about
// 40 bits, plenty for a single rate-limited shared credential.
const passwordWords = 3

func main() {
	password := ""
	if len(os.Args) > 1 {
		password = os.Args[1]
	}

	if password == "" {
		generated, err := generatePassword()
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to generate password:", err)
			os.Exit(1)
		}
		password = generated
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to hash password:", err)
		os.Exit(1)
	}

	fmt.Println("Generated DJ credentials:")
	fmt.Printf("Password: %s\n", password)
	fmt.Println()
	fmt.Println("IMPORTANT: Save the password securely. It cannot be recovered once lost.")
	fmt.Println("Add the following to your .env file:")
	fmt.Printf("DJ_PASSWORD_HASH=%s\n", hash)

	if os.Getenv("JWT_SECRET") == "" {
		secret, err := generateSecret()
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to generate JWT secret:", err)
			os.Exit(1)
		}
		fmt.Printf("JWT_SECRET=%s\n", secret)
	}
}

// generatePassword builds a memorable password like "apple-river-stone-42"
// from the BIP39 English wordlist.
func generatePassword() (string, error) {
	words := make([]string, 0, passwordWords+1)
	for i := 0; i < passwordWords; i++ {
		idx, err := randomIndex(len(wordlists.English))
		if err != nil {
			return "", err
		}
		words = append(words, wordlists.English[idx])
	}

	num, err := randomIndex(100)
	if err != nil {
		return "", err
	}
	words = append(words, fmt.Sprintf("%d", num))

	return strings.Join(words, "-"), nil
}

// randomIndex returns a uniform random index in [0, n). The wordlist length
// (2048) divides 65536 evenly, so the modulo is unbiased there; for other n
// the bias is irrelevant at this entropy level.
func randomIndex(n int) (int, error) {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint16(buf[:])) % n, nil
}

func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
