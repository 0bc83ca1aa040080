package client

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
)

var adjectives = []string{
	"tiny", "happy", "sleepy", "fluffy", "sparkly", "cheery", "silly", "jolly", "cozy", "shiny",
	"golden", "silver", "crimson", "emerald", "purple", "blue", "red", "green", "bright", "gentle",
	"brave", "calm", "swift", "silent", "noisy", "bouncy", "fuzzy", "plucky", "merry", "peppy",
}

var animals = []string{
	"kitten", "puppy", "bunny", "panda", "koala", "fox", "otter", "hedgehog", "squirrel", "hamster",
	"penguin", "flamingo", "pelican", "swallow", "sparrow", "robin", "toucan", "parrot", "canary", "dolphin",
}

var extras = []string{
	"sunbeam", "stardust", "bubble", "sprout", "glimmer", "echo", "marble", "maple", "cocoa", "hazel",
	"breeze", "meadow", "willow", "ember", "poppy", "pixel", "comet", "orbit", "nebula", "ridge",
}

// GenerateRoomID creates a random, memorable room ID from word combinations.
// Format: adjective-animal-extra (e.g., "cozy-otter-stardust"). Room IDs are
// opaque to the server; this is purely a convenience for humans.
func GenerateRoomID() string {
	return fmt.Sprintf("%s-%s-%s",
		adjectives[randomIndex(len(adjectives))],
		animals[randomIndex(len(animals))],
		extras[randomIndex(len(extras))],
	)
}

// randomIndex returns a cryptographically secure random index for a slice of given length.
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		log.Panic("Failed to generate random index:", err)
	}
	return int(n.Int64())
}
