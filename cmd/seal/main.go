// Package main encrypts or decrypts a dataset file in place with an age passphrase.
//
// Usage:
//
//	seal [-open] <dataset.csv>
//
// The passphrase is read from SCAMDASH_DATASET_PASSWORD or prompted for.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"scamdash/internal/services/storage"
)

func main() {
	open := flag.Bool("open", false, "Decrypt the dataset instead of encrypting it")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-open] <dataset>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	password, err := passphrase(!*open)
	if err != nil {
		slog.Error("Cannot read passphrase", "error", err)
		os.Exit(1)
	}

	if *open {
		err = storage.Open(path, password)
	} else {
		err = storage.Seal(path, password)
	}
	if err != nil {
		slog.Error("Operation failed", "path", path, "open", *open, "error", err)
		os.Exit(1)
	}

	if *open {
		slog.Info("Dataset decrypted", "path", path)
	} else {
		slog.Info("Dataset encrypted", "path", path)
	}
}

// passphrase reads the passphrase from the environment or the terminal.
// confirm asks twice when typing a new passphrase.
func passphrase(confirm bool) (string, error) {
	if pw := os.Getenv("SCAMDASH_DATASET_PASSWORD"); pw != "" {
		return pw, nil
	}

	pw, err := storage.PromptPassword("Passphrase: ")
	if err != nil {
		return "", err
	}
	if !confirm {
		return pw, nil
	}

	again, err := storage.PromptPassword("Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	if pw != again {
		return "", errors.New("passphrases do not match")
	}
	return pw, nil
}
