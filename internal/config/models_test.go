package config

import "testing"

func TestSelectModelPrecedence(t *testing.T) {
	t.Run("override wins", func(t *testing.T) {
		c := &Config{Models: map[string]string{"evaluation": "custom-model"}}
		if got := c.SelectModel("evaluation"); got != "custom-model" {
			t.Errorf("SelectModel = %s, want custom-model", got)
		}
	})

	t.Run("override wins even in economy mode", func(t *testing.T) {
		c := &Config{Economy: true, Models: map[string]string{"evaluation": "custom-model"}}
		if got := c.SelectModel("evaluation"); got != "custom-model" {
			t.Errorf("SelectModel = %s, want custom-model", got)
		}
	})

	t.Run("table role", func(t *testing.T) {
		c := &Config{}
		if got := c.SelectModel("comment-classification"); got != "claude-haiku-3-5-20241022" {
			t.Errorf("SelectModel = %s, want the cheap tier", got)
		}
		if got := c.SelectModel("evaluation"); got != "claude-opus-4-20250514" {
			t.Errorf("SelectModel = %s, want the strong tier", got)
		}
	})

	t.Run("unknown role gets default", func(t *testing.T) {
		c := &Config{}
		if got := c.SelectModel("no-such-role"); got != defaultModel {
			t.Errorf("SelectModel = %s, want %s", got, defaultModel)
		}
	})

	t.Run("economy downgrades", func(t *testing.T) {
		c := &Config{Economy: true}
		if got := c.SelectModel("code-change"); got != economyDefaultModel {
			t.Errorf("SelectModel = %s, want %s", got, economyDefaultModel)
		}
		// Evaluation keeps a mid tier rather than dropping to the floor.
		if got := c.SelectModel("evaluation"); got != "claude-sonnet-4-20250514" {
			t.Errorf("SelectModel = %s, want the mid tier", got)
		}
	})
}
