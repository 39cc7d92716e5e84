// Package prompt provides interactive terminal prompts.
package prompt

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// Confirm asks a yes/no question on the terminal and returns the answer.
func Confirm(title string) (bool, error) {
	var ok bool

	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	))

	err := form.Run()
	if err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}

	return ok, nil
}
