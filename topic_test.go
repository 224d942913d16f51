package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTopicName(t *testing.T) {
	valid := []string{"a", "a/b", "a/b/c", "/leading", "trailing/", "with space"}
	for _, topic := range valid {
		assert.NoError(t, ValidateTopicName(topic), topic)
	}

	assert.ErrorIs(t, ValidateTopicName(""), ErrEmptyTopic)
	assert.ErrorIs(t, ValidateTopicName("a/+/b"), ErrInvalidTopicName)
	assert.ErrorIs(t, ValidateTopicName("a/#"), ErrInvalidTopicName)
	assert.ErrorIs(t, ValidateTopicName("a\x00b"), ErrStringContainsNull)
}

func TestValidateTopicFilter(t *testing.T) {
	valid := []string{"a", "a/b", "+", "#", "a/+", "a/#", "+/+/c", "a/+/#"}
	for _, filter := range valid {
		assert.NoError(t, ValidateTopicFilter(filter), filter)
	}

	invalid := []string{"", "a+", "a/b+", "a#", "#/a", "a/#/b", "a/b#"}
	for _, filter := range invalid {
		assert.Error(t, ValidateTopicFilter(filter), filter)
	}
}

func TestTopicMatch(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"a/b", "a/b", true},
		{"a/b", "a/c", false},
		{"a/+", "a/b", true},
		{"a/+", "a/b/c", false},
		{"a/#", "a/b/c", true},
		{"a/#", "a", true},
		{"#", "anything/at/all", true},
		{"+/+", "a/b", true},
		{"+", "a/b", false},
		{"sport/+/player1", "sport/tennis/player1", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TopicMatch(tt.filter, tt.topic),
			"filter %q topic %q", tt.filter, tt.topic)
	}
}
