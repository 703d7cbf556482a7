package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/taste-karachi/advisor-cli/internal/model"
)

var (
	chatFile     string
	chatCategory string
	chatArea     string
	chatPrice    string
	chatVibes    []string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive consultation session over one restaurant profile",
	Long:  "Starts a consultation with an initial advice turn, then reads follow-up questions from stdin. Follow-ups that ask about the underlying reviews trigger a fresh retrieval; /quit exits.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		features, err := loadFeatures(chatFile, chatCategory, chatArea, chatPrice, chatVibes)
		if err != nil {
			return err
		}
		if features.Category == "" && features.Area == "" && features.PriceLevel == "" {
			return eris.New("empty profile: set --category, --area, or --price-level (or --features)")
		}

		env, err := initAdvisor(ctx, "chat")
		if err != nil {
			return err
		}
		defer env.Close()

		conv, resp, err := env.Advisor.StartConversation(ctx, features)
		if err != nil {
			return eris.Wrap(err, "start conversation")
		}
		printTurn(resp)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "/quit" || line == "/exit" {
				break
			}

			resp, err := env.Advisor.Turn(ctx, conv, line)
			if err != nil {
				return eris.Wrap(err, "turn")
			}
			printTurn(resp)
		}
		if err := scanner.Err(); err != nil {
			return eris.Wrap(err, "read stdin")
		}

		return nil
	},
}

func printTurn(resp model.AdviceResponse) {
	fmt.Println()
	fmt.Println(resp.Advice)
	fmt.Printf("\n[status=%s tier=%d reviews=%d]\n\n", resp.Status, resp.FilterTierUsed, resp.NumReviewsRetrieved)
}

func init() {
	chatCmd.Flags().StringVar(&chatFile, "features", "", "path to a JSON restaurant profile")
	chatCmd.Flags().StringVar(&chatCategory, "category", "", "restaurant category")
	chatCmd.Flags().StringVar(&chatArea, "area", "", "Karachi area")
	chatCmd.Flags().StringVar(&chatPrice, "price-level", "", "price level")
	chatCmd.Flags().StringSliceVar(&chatVibes, "vibes", nil, "amenity flags to set")
	rootCmd.AddCommand(chatCmd)
}
