package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/repo-cards/internal/counter"
)

var counterCmd = &cobra.Command{
	Use:   "counter",
	Short: "An interactive click counter",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := tea.NewProgram(counter.NewModel(), tea.WithMouseCellMotion())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(counterCmd)
}
