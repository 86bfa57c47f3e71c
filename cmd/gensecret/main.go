// gensecret prints a random key suitable for the SECRET_KEY setting
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

const defaultKeyBytes = 32

func main() {
	n := pflag.IntP("bytes", "n", defaultKeyBytes, "Key length in bytes")
	pflag.Parse()

	b := make([]byte, *n)
	if _, err := rand.Read(b); err != nil {
		fmt.Printf("error while generating secret key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}
