package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/railbird/chipsettle/internal/domain"
	"github.com/railbird/chipsettle/internal/usecase"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chipsettle-cli",
		Short: "Chipsettle CLI tool",
		Long:  `A command line interface for computing settlements and talking to the chipsettle API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the chipsettle API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(newSettleCmd())
	rootCmd.AddCommand(newProofCmd())
	rootCmd.AddCommand(newSessionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newSettleCmd() *cobra.Command {
	settleCmd := &cobra.Command{
		Use:   "settle",
		Short: "Settlement computations over a positions file",
	}

	var positionsFile string

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute the minimized payment plan for a set of net positions",
		Run: func(cmd *cobra.Command, args []string) {
			positions := loadPositions(positionsFile)

			idGen := &localIDGenerator{}
			optimizer := usecase.NewSettlementOptimizer(idGen)

			settlement, err := optimizer.Optimize("", positions)
			if err != nil {
				pterm.Error.Printfln("settlement failed: %v", err)
				os.Exit(1)
			}

			printPlan(settlement.Plan)
			pterm.Info.Printfln("direct pairwise would need %d payments, optimized plan needs %d (%s%% fewer)",
				settlement.Metrics.OriginalPaymentCount,
				settlement.Metrics.OptimizedPaymentCount,
				settlement.Metrics.ReductionPercentage.StringFixed(1))
		},
	}
	planCmd.Flags().StringVar(&positionsFile, "positions", "", "Path to a JSON file of net positions")
	_ = planCmd.MarkFlagRequired("positions")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare settlement algorithms over the same positions",
		Run: func(cmd *cobra.Command, args []string) {
			positions := loadPositions(positionsFile)

			comparator := usecase.NewAlternativeComparator()
			comparison, err := comparator.Compare(positions)
			if err != nil {
				pterm.Error.Printfln("comparison failed: %v", err)
				os.Exit(1)
			}

			printComparison(comparison)
		},
	}
	compareCmd.Flags().StringVar(&positionsFile, "positions", "", "Path to a JSON file of net positions")
	_ = compareCmd.MarkFlagRequired("positions")

	settleCmd.AddCommand(planCmd)
	settleCmd.AddCommand(compareCmd)

	return settleCmd
}

func newProofCmd() *cobra.Command {
	proofCmd := &cobra.Command{
		Use:   "proof",
		Short: "Proof operations",
	}

	var proofFile string
	var signingKey string

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a settlement proof from a JSON export",
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(proofFile)
			if err != nil {
				pterm.Error.Printfln("failed to read proof: %v", err)
				os.Exit(1)
			}

			var proof domain.MathematicalProof
			if err := json.Unmarshal(data, &proof); err != nil {
				pterm.Error.Printfln("failed to parse proof: %v", err)
				os.Exit(1)
			}

			engine := usecase.NewProofEngine(&localIDGenerator{}, []byte(signingKey))
			verification, err := engine.VerifyProof(&proof)
			if err != nil {
				pterm.Error.Printfln("verification failed: %v", err)
				os.Exit(1)
			}

			printVerification(verification)
			if !verification.IsValid {
				os.Exit(1)
			}
		},
	}
	verifyCmd.Flags().StringVar(&proofFile, "file", "", "Path to a proof JSON file")
	verifyCmd.Flags().StringVar(&signingKey, "key", "", "HMAC signing key used when the proof was generated")
	_ = verifyCmd.MarkFlagRequired("file")

	proofCmd.AddCommand(verifyCmd)

	return proofCmd
}

func newSessionCmd() *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Session operations against a running server",
	}

	var sessionID string

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check a session's ledger consistency",
		Run: func(cmd *cobra.Command, args []string) {
			checkConsistency(sessionID)
		},
	}
	consistencyCmd.Flags().StringVar(&sessionID, "session", "", "Session ID")
	_ = consistencyCmd.MarkFlagRequired("session")

	sessionCmd.AddCommand(consistencyCmd)

	return sessionCmd
}

func checkConsistency(sessionID string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/api/v1/sessions/" + sessionID + "/consistency")
	if err != nil {
		pterm.Error.Printfln("request failed: %v", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		pterm.Error.Printfln("consistency check failed (status %d): %s", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		pterm.Error.Printfln("failed to parse response: %v", err)
		os.Exit(1)
	}

	if consistent, ok := result["consistent"].(bool); ok && consistent {
		pterm.Success.Printfln("session %s is consistent", sessionID)
		return
	}

	pterm.Warning.Printfln("session %s has discrepancies", sessionID)
	pretty, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(pretty))
	os.Exit(1)
}

func loadPositions(path string) []domain.NetPosition {
	data, err := os.ReadFile(path)
	if err != nil {
		pterm.Error.Printfln("failed to read positions: %v", err)
		os.Exit(1)
	}

	var positions []domain.NetPosition
	if err := json.Unmarshal(data, &positions); err != nil {
		pterm.Error.Printfln("failed to parse positions: %v", err)
		os.Exit(1)
	}

	return positions
}

func printPlan(plan domain.PaymentPlan) {
	if len(plan.Instructions) == 0 {
		pterm.Success.Println("everyone broke even, no payments needed")
		return
	}

	rows := pterm.TableData{{"From", "To", "Amount"}}
	for _, ins := range plan.Instructions {
		rows = append(rows, []string{ins.FromName, ins.ToName, ins.Amount.StringFixed(domain.MinorUnitExponent)})
	}

	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func printComparison(comparison *usecase.AlternativeComparison) {
	rows := pterm.TableData{{"Algorithm", "Payments", "Score"}}
	for i, opt := range comparison.Options {
		name := string(opt.Algorithm)
		if i == comparison.Recommended {
			name += " (recommended)"
		}
		rows = append(rows, []string{name, fmt.Sprintf("%d", opt.TransactionCount), opt.Score.StringFixed(1)})
	}

	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()

	recommended := comparison.Options[comparison.Recommended]
	for _, pro := range recommended.Pros {
		pterm.Info.Printfln("+ %s", pro)
	}
	for _, con := range recommended.Cons {
		pterm.Warning.Printfln("- %s", con)
	}
}

func printVerification(v *domain.ProofVerification) {
	status := func(ok bool) string {
		if ok {
			return pterm.Green("ok")
		}
		return pterm.Red("FAILED")
	}

	rows := pterm.TableData{
		{"Check", "Result"},
		{"checksum", status(v.ChecksumValid)},
		{"signature", status(v.SignatureValid)},
		{"calculation steps", status(v.StepsValid)},
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()

	if v.IsValid {
		pterm.Success.Println("proof verified")
	} else {
		pterm.Error.Println("proof verification failed")
		for _, idx := range v.FailedSteps {
			pterm.Error.Printfln("step %d failed recheck", idx)
		}
	}
}

// localIDGenerator is enough for offline computations where IDs are never
// persisted.
type localIDGenerator struct {
	n int
}

func (g *localIDGenerator) Generate() string {
	g.n++
	return fmt.Sprintf("local-%d", g.n)
}
