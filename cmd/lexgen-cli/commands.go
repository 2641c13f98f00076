package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/davidahmann/lexgen/internal/prompt"
	"github.com/davidahmann/lexgen/internal/request"
	"github.com/davidahmann/lexgen/internal/rules"
	"github.com/davidahmann/lexgen/pkg/types"
	"github.com/spf13/cobra"
)

type requestFlags struct {
	jurisdiction string
	contractType string
	requirements string
	description  string
	payee        string
	payer        string
}

func (f *requestFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.jurisdiction, "jurisdiction", "", "jurisdiction code (india, eu, us)")
	flags.StringVar(&f.contractType, "contract-type", "", "contract type (escrow, insurance, settlement)")
	flags.StringVar(&f.requirements, "requirements", "", "natural-language requirements")
	flags.StringVar(&f.description, "description", "", "optional description")
	flags.StringVar(&f.payee, "payee", "", "payee address")
	flags.StringVar(&f.payer, "payer", "", "payer address")
}

func (f *requestFlags) request() types.GenerationRequest {
	return types.GenerationRequest{
		Jurisdiction: f.jurisdiction,
		ContractType: f.contractType,
		Requirements: f.requirements,
		Description:  f.description,
		PayeeAddress: f.payee,
		PayerAddress: f.payer,
	}
}

func rulesCmd() *cobra.Command {
	cmd := groupCmd("rules", "Inspect rule files")
	cmd.AddCommand(&cobra.Command{
		Use:   "check <rules_path>",
		Short: "Load a rule file and print a summary",
		Args:  exactArgs(1, "<rules_path>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := rules.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok jurisdictions=%s contract_types=%s digest=%s\n",
				strings.Join(set.JurisdictionCodes(), ","),
				strings.Join(set.ContractTypeCodes(), ","),
				set.Digest(),
			)
			return nil
		},
	})
	return cmd
}

func promptCmd() *cobra.Command {
	cmd := groupCmd("prompt", "Work with generation prompts offline")

	var req requestFlags
	var rulesPath string
	render := &cobra.Command{
		Use:   "render",
		Short: "Print the prompt the gateway would send for a request",
		Args:  exactArgs(0, "no arguments"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := rules.Load(rulesPath)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), prompt.Build(req.request(), set))
			return nil
		},
	}
	req.bind(render)
	render.Flags().StringVar(&rulesPath, "rules", envOrDefault("LEXGEN_RULES_PATH", "rules/jurisdictions.yaml"), "rule file path")
	cmd.AddCommand(render)
	return cmd
}

func validateCmd(opts *globalOptions) *cobra.Command {
	var req requestFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a generation request without generating",
		Args:  exactArgs(0, "no arguments"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp struct {
				Validation request.Result `json:"validation"`
			}
			raw, err := opts.client().call(http.MethodPost, "/api/validate", req.request(), http.StatusOK, &resp)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				_, _ = cmd.OutOrStdout().Write(raw)
			} else {
				printValidation(cmd, resp.Validation.Valid, resp.Validation.Errors, resp.Validation.Warnings)
			}
			if !resp.Validation.Valid {
				return failedError{}
			}
			return nil
		},
	}
	req.bind(cmd)
	return cmd
}

func generateCmd(opts *globalOptions) *cobra.Command {
	var req requestFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate and store a draft contract",
		Args:  exactArgs(0, "no arguments"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp struct {
				Contract types.ContractRecord `json:"contract"`
				Outcome  string               `json:"outcome"`
				Warnings []string             `json:"warnings"`
			}
			raw, err := opts.client().call(http.MethodPost, "/api/generate", req.request(), http.StatusCreated, &resp)
			if err != nil {
				return validationFailure(cmd, err)
			}
			if opts.jsonOut {
				_, _ = cmd.OutOrStdout().Write(raw)
				return nil
			}
			for _, w := range resp.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
			}
			c := resp.Contract
			fmt.Fprintf(cmd.OutOrStdout(), "id=%d status=%s outcome=%s contract_name=%s\n",
				c.ID, c.Status, resp.Outcome, c.Metadata.ContractName())
			return nil
		},
	}
	req.bind(cmd)
	return cmd
}

func contractsCmd(opts *globalOptions) *cobra.Command {
	cmd := groupCmd("contracts", "List, inspect and update stored contracts")

	var jurisdiction, contractType, status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List contracts newest first",
		Args:  exactArgs(0, "no arguments"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := url.Values{}
			if jurisdiction != "" {
				query.Set("jurisdiction", jurisdiction)
			}
			if contractType != "" {
				query.Set("contractType", contractType)
			}
			if status != "" {
				query.Set("status", status)
			}
			path := "/api/contracts"
			if len(query) > 0 {
				path += "?" + query.Encode()
			}

			var resp struct {
				Contracts []types.ContractSummary `json:"contracts"`
				Count     int                     `json:"count"`
			}
			raw, err := opts.client().call(http.MethodGet, path, nil, http.StatusOK, &resp)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				_, _ = cmd.OutOrStdout().Write(raw)
				return nil
			}
			for _, c := range resp.Contracts {
				fmt.Fprintf(cmd.OutOrStdout(), "id=%d jurisdiction=%s contract_type=%s status=%s created_at=%s\n",
					c.ID, c.Jurisdiction, c.ContractType, c.Status, c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "count=%d\n", resp.Count)
			return nil
		},
	}
	list.Flags().StringVar(&jurisdiction, "jurisdiction", "", "filter by jurisdiction")
	list.Flags().StringVar(&contractType, "contract-type", "", "filter by contract type")
	list.Flags().StringVar(&status, "status", "", "filter by status")

	get := &cobra.Command{
		Use:   "get <contract_id>",
		Short: "Print one contract",
		Args:  exactArgs(1, "<contract_id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var resp struct {
				Contract types.ContractRecord `json:"contract"`
			}
			raw, err := opts.client().call(http.MethodGet, "/api/contracts/"+id, nil, http.StatusOK, &resp)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				_, _ = cmd.OutOrStdout().Write(raw)
				return nil
			}
			c := resp.Contract
			fmt.Fprintf(cmd.OutOrStdout(), "id=%d jurisdiction=%s contract_type=%s status=%s contract_name=%s\n",
				c.ID, c.Jurisdiction, c.ContractType, c.Status, c.Metadata.ContractName())
			if c.TransactionHash != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "transaction_hash=%s contract_address=%s\n", c.TransactionHash, c.ContractAddress)
			}
			return nil
		},
	}

	var newStatus, txHash, address string
	setStatus := &cobra.Command{
		Use:   "status <contract_id>",
		Short: "Set the status of a contract",
		Args:  exactArgs(1, "<contract_id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			body := map[string]string{"status": newStatus}
			if txHash != "" {
				body["transactionHash"] = txHash
			}
			if address != "" {
				body["contractAddress"] = address
			}
			raw, err := opts.client().call(http.MethodPut, "/api/contracts/"+id+"/status", body, http.StatusOK, nil)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				_, _ = cmd.OutOrStdout().Write(raw)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok id=%s status=%s\n", id, strings.ToLower(newStatus))
			return nil
		},
	}
	setStatus.Flags().StringVar(&newStatus, "status", "", "draft, deployed or failed")
	setStatus.Flags().StringVar(&txHash, "tx-hash", "", "transaction hash")
	setStatus.Flags().StringVar(&address, "address", "", "deployed contract address")

	var outPath string
	bundle := &cobra.Command{
		Use:   "bundle <contract_id>",
		Short: "Download a contract as a zip bundle",
		Args:  exactArgs(1, "<contract_id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			raw, err := opts.client().call(http.MethodGet, "/api/contracts/"+id+"/bundle", nil, http.StatusOK, nil)
			if err != nil {
				return err
			}
			target := outPath
			if target == "" {
				target = "contract-" + id + ".zip"
			}
			if dir := filepath.Dir(target); dir != "." {
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return fmt.Errorf("output dir: %w", err)
				}
			}
			if err := os.WriteFile(target, raw, 0o600); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", target)
			return nil
		},
	}
	bundle.Flags().StringVar(&outPath, "out", "", "output zip path")

	cmd.AddCommand(list, get, setStatus, bundle)
	return cmd
}

func deployCmd(opts *globalOptions) *cobra.Command {
	cmd := groupCmd("deploy", "Prepare and confirm deployments")

	prepare := &cobra.Command{
		Use:   "prepare <contract_id>",
		Short: "Print unsigned deployment data",
		Args:  exactArgs(1, "<contract_id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var resp struct {
				DeploymentData types.DeploymentData `json:"deploymentData"`
			}
			raw, err := opts.client().call(http.MethodPost, "/api/deploy/"+id, nil, http.StatusOK, &resp)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				_, _ = cmd.OutOrStdout().Write(raw)
				return nil
			}
			d := resp.DeploymentData
			fmt.Fprintf(cmd.OutOrStdout(), "contract_id=%d contract_name=%s estimated_gas=%d constructor_params=%s\n",
				d.ContractID, d.ContractName, d.EstimatedGas, strings.Join(d.ConstructorParams, ","))
			return nil
		},
	}

	var txHash, address string
	confirm := &cobra.Command{
		Use:   "confirm <contract_id>",
		Short: "Record a deployment transaction",
		Args:  exactArgs(1, "<contract_id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(txHash) == "" {
				return usageError{msg: "deploy confirm requires --tx-hash"}
			}
			body := map[string]string{"transactionHash": txHash}
			if address != "" {
				body["contractAddress"] = address
			}
			raw, err := opts.client().call(http.MethodPost, "/api/deploy/"+id+"/confirm", body, http.StatusOK, nil)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				_, _ = cmd.OutOrStdout().Write(raw)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok id=%s status=deployed transaction_hash=%s\n", id, txHash)
			return nil
		},
	}
	confirm.Flags().StringVar(&txHash, "tx-hash", "", "deployment transaction hash")
	confirm.Flags().StringVar(&address, "address", "", "deployed contract address")

	bytecode := &cobra.Command{
		Use:   "bytecode <contract_id>",
		Short: "Print the placeholder bytecode and constructor parameters",
		Args:  exactArgs(1, "<contract_id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var resp struct {
				Bytecode          string   `json:"bytecode"`
				ConstructorParams []string `json:"constructorParams"`
			}
			raw, err := opts.client().call(http.MethodGet, "/api/deploy/"+id+"/bytecode", nil, http.StatusOK, &resp)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				_, _ = cmd.OutOrStdout().Write(raw)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "bytecode=%s constructor_params=%s\n", resp.Bytecode, strings.Join(resp.ConstructorParams, ","))
			return nil
		},
	}

	var gasType, gasJurisdiction string
	estimate := &cobra.Command{
		Use:   "estimate-gas",
		Short: "Estimate deployment gas for a contract type and jurisdiction",
		Args:  exactArgs(0, "no arguments"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp struct {
				EstimatedGas int64  `json:"estimatedGas"`
				ContractType string `json:"contractType"`
				Jurisdiction string `json:"jurisdiction"`
			}
			body := map[string]string{"contractType": gasType, "jurisdiction": gasJurisdiction}
			raw, err := opts.client().call(http.MethodPost, "/api/deploy/estimate-gas", body, http.StatusOK, &resp)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				_, _ = cmd.OutOrStdout().Write(raw)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "estimated_gas=%d contract_type=%s jurisdiction=%s\n",
				resp.EstimatedGas, resp.ContractType, resp.Jurisdiction)
			return nil
		},
	}
	estimate.Flags().StringVar(&gasType, "contract-type", "", "contract type")
	estimate.Flags().StringVar(&gasJurisdiction, "jurisdiction", "", "jurisdiction")

	cmd.AddCommand(prepare, confirm, bytecode, estimate)
	return cmd
}

func printValidation(cmd *cobra.Command, valid bool, errs, warnings []string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "valid=%t\n", valid)
	for _, e := range errs {
		fmt.Fprintf(out, "error: %s\n", e)
	}
	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
}

// validationFailure prints the field errors of a rejected generate call.
func validationFailure(cmd *cobra.Command, err error) error {
	var se *statusError
	if !errors.As(err, &se) || se.status != http.StatusBadRequest {
		return err
	}
	var payload struct {
		Error    string   `json:"error"`
		Errors   []string `json:"errors"`
		Warnings []string `json:"warnings"`
	}
	if jsonErr := json.Unmarshal(se.body, &payload); jsonErr != nil || len(payload.Errors) == 0 {
		return err
	}
	printValidation(cmd, false, payload.Errors, payload.Warnings)
	return failedError{}
}

func parseID(raw string) (string, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return "", usageError{msg: fmt.Sprintf("invalid contract id %q", raw)}
	}
	return strconv.FormatInt(id, 10), nil
}
