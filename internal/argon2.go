package internal

import (
	"golang.org/x/crypto/argon2"
)

// Argon2Config specifies Argon2 parameters.
type Argon2Config struct {
	Time      uint32 // Number of iterations
	Memory    uint32 // Memory in KiB
	Threads   uint8  // Parallelism factor
	OutputLen uint32 // Output length in bytes
	Salt      []byte // Salt value
}

// IndexKeyArgon2Config returns the Argon2 configuration used to derive the
// lower half of the index key.
func IndexKeyArgon2Config(salt []byte) Argon2Config {
	return Argon2Config{
		Time:      3,  // 3 iterations
		Memory:    8,  // 8 KiB
		Threads:   1,  // Single lane
		OutputLen: 64, // Only the first 32 bytes are used
		Salt:      salt,
	}
}

// Argon2i computes an Argon2i (version 0x13) hash.
func Argon2i(password []byte, config Argon2Config) []byte {
	return argon2.Key(
		password,
		config.Salt,
		config.Time,
		config.Memory,
		config.Threads,
		config.OutputLen,
	)
}
