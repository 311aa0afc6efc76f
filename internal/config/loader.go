package config

import (
	"fmt"
	"os"

	"batch_txt_bot/src/conversation"

	"gopkg.in/yaml.v3"
)

// MessagesFile is the structure of messages.yaml. Every key is optional.
type MessagesFile struct {
	Messages conversation.Messages `yaml:"messages"`
}

// LoadMessages reads a message catalog from filepath, layered over the
// built-in defaults. An empty filepath returns the defaults.
func LoadMessages(filepath string) (conversation.Messages, error) {
	defaults := conversation.DefaultMessages()
	if filepath == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return defaults, fmt.Errorf("error reading messages file: %w", err)
	}
	return ParseMessages(data)
}

// ParseMessages decodes YAML over the defaults; keys not present keep their
// built-in value.
func ParseMessages(data []byte) (conversation.Messages, error) {
	file := MessagesFile{Messages: conversation.DefaultMessages()}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return conversation.DefaultMessages(), fmt.Errorf("error parsing YAML: %w", err)
	}
	return file.Messages, nil
}
