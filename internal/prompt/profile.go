// Package prompt renders the Responder prompt from a classifier verdict and
// the room history.
package prompt

import (
	"fmt"
	"os"

	"github.com/raphaelgruber/scamdetect/internal/chat"
	"gopkg.in/yaml.v3"
)

// DefaultPersona is the scam-expert system instruction.
const DefaultPersona = `You are a scam text expert who explains things in a clear and concise manner that is easy to understand.
The first input from the user is a text they are suspicious of being a scam and is sent for a text classifier who provides a label, either scam or safe and the likelihood.
You love teaching the user to understand why a text is likely or unlikely to be a scam, and teach them how to identify such texts.`

// DefaultClosing tells the model how to handle follow-ups.
const DefaultClosing = `Answer any follow-up questions the user may have based on the following chat history.
If they don't have any questions, remind them to open a new chat room for another suspicious text.`

// Profile holds the texts that shape the conversation.
type Profile struct {
	Greeting string `yaml:"greeting"`
	Persona  string `yaml:"persona"`
	Closing  string `yaml:"closing"`
}

// DefaultProfile returns the built-in profile.
func DefaultProfile() Profile {
	return Profile{
		Greeting: chat.DefaultGreeting,
		Persona:  DefaultPersona,
		Closing:  DefaultClosing,
	}
}

// LoadProfile reads a YAML profile. Empty path returns the defaults, and
// fields missing from the file keep their default value.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}

	var override Profile
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}

	if override.Greeting != "" {
		p.Greeting = override.Greeting
	}
	if override.Persona != "" {
		p.Persona = override.Persona
	}
	if override.Closing != "" {
		p.Closing = override.Closing
	}
	return p, nil
}
