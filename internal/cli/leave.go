package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"hrassist/internal/common"
	"hrassist/internal/leave"
	"hrassist/internal/store"
	"hrassist/internal/types"
)

func newLeaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leave",
		Short: "Evaluate leave requests and manage leave policies",
	}
	cmd.AddCommand(newLeaveApplyCmd(), newLeavePoliciesCmd(), newLeaveHistoryCmd())
	return cmd
}

type leaveApplyFlags struct {
	request     types.LeaveRequest
	interactive bool
	output      outputFlags
}

func newLeaveApplyCmd() *cobra.Command {
	var flags leaveApplyFlags

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Evaluate a leave request against company policy",
		Long: `Evaluate a leave request against the current leave policies. The decision is
APPROVED, FLAGGED for HR review or REJECTED with the violated rules listed.

Provide the request with flags, or use --interactive to be prompted for it. Dates
are YYYY-MM-DD; the interactive prompt takes a DD/MM/YY-DD/MM/YY range.`,
		Example: `  hrassist leave apply --employee-id E042 --name "Asha Rao" --type casual \
    --start 2025-08-20 --end 2025-08-21 --reason "family function" --balance 6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaveApply(cmd, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.request.EmployeeID, "employee-id", "", "Employee ID")
	f.StringVar(&flags.request.EmployeeName, "name", "", "Employee name")
	f.StringVar(&flags.request.LeaveType, "type", "", "Leave type, e.g. casual, sick or annual")
	f.StringVar(&flags.request.StartDate, "start", "", "First day of leave (YYYY-MM-DD)")
	f.StringVar(&flags.request.EndDate, "end", "", "Last day of leave (YYYY-MM-DD)")
	f.StringVar(&flags.request.Reason, "reason", "", "Reason for the leave")
	f.Float64Var(&flags.request.AvailableBalance, "balance", 0, "Available leave balance in days")
	f.BoolVarP(&flags.interactive, "interactive", "i", false, "Prompt for the request")
	flags.output.register(cmd)
	return cmd
}

func runLeaveApply(cmd *cobra.Command, flags leaveApplyFlags) error {
	ctx := cmd.Context()
	a, err := getApp(ctx)
	if err != nil {
		return err
	}
	output, err := a.outputConfig(flags.output)
	if err != nil {
		return err
	}

	req := flags.request
	if flags.interactive {
		listing := a.policies.Policies(ctx)
		if req, err = promptLeaveRequest(leave.LeaveTypes(listing.Policies), req); err != nil {
			return err
		}
	}

	leaveAssistant, err := a.leaveAssistant()
	if err != nil {
		return err
	}

	return common.RunCommand(ctx, a.runner(cmd.OutOrStdout()), output, nil,
		func([][]byte) (types.LeaveRequest, error) { return req, nil },
		leaveAssistant.Analyze,
		func(req types.LeaveRequest, cfg common.CommandConfig) {
			a.logger.Info("Evaluating leave request",
				"employee_id", req.EmployeeID,
				"leave_type", req.LeaveType,
				"start_date", req.StartDate,
				"end_date", req.EndDate,
				"output_format", cfg.OutputFormat)
		})
}

func requiredValue(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("a value is required")
	}
	return nil
}

func validBalance(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("balance must be a number of days")
	}
	if v < 0 {
		return fmt.Errorf("balance must not be negative")
	}
	return nil
}

func validDateRange(s string) error {
	_, _, err := leave.ParseDateRange(s)
	return err
}

// promptLeaveRequest asks for every field, offering the values already given as defaults.
func promptLeaveRequest(leaveTypes []string, req types.LeaveRequest) (types.LeaveRequest, error) {
	ask := func(label, def string, validate promptui.ValidateFunc) (string, error) {
		prompt := promptui.Prompt{Label: label, Default: def, Validate: validate, AllowEdit: def != ""}
		value, err := prompt.Run()
		return strings.TrimSpace(value), err
	}

	var err error
	if req.EmployeeID, err = ask("Employee ID", req.EmployeeID, nil); err != nil {
		return req, err
	}
	if req.EmployeeName, err = ask("Employee name", req.EmployeeName, requiredValue); err != nil {
		return req, err
	}

	selectType := promptui.Select{Label: "Leave type", Items: leaveTypes}
	if _, req.LeaveType, err = selectType.Run(); err != nil {
		return req, err
	}

	dates, err := ask("Dates (DD/MM/YY-DD/MM/YY)", "", validDateRange)
	if err != nil {
		return req, err
	}
	if req.StartDate, req.EndDate, err = leave.ParseDateRange(dates); err != nil {
		return req, err
	}

	if req.Reason, err = ask("Reason", req.Reason, nil); err != nil {
		return req, err
	}

	balance, err := ask("Available balance (days)", strconv.FormatFloat(req.AvailableBalance, 'f', -1, 64), validBalance)
	if err != nil {
		return req, err
	}
	req.AvailableBalance, _ = strconv.ParseFloat(balance, 64)
	return req, nil
}

func newLeavePoliciesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "List and change leave policies",
	}
	cmd.AddCommand(newPoliciesListCmd(), newPoliciesSetCmd(), newPoliciesImportCmd())
	return cmd
}

// runPolicyCommand runs op and prints the resulting policy listing.
func runPolicyCommand(cmd *cobra.Command, output outputFlags, op func(context.Context, *app) error) error {
	return runStoreCommand(cmd, output, func(ctx context.Context, a *app) (types.PolicyListing, error) {
		if op != nil {
			if err := op(ctx, a); err != nil {
				return types.PolicyListing{}, err
			}
		}
		return a.policies.Policies(ctx), nil
	})
}

func newPoliciesListCmd() *cobra.Command {
	var output outputFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the current leave policies and where they come from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPolicyCommand(cmd, output, nil)
		},
	}
	output.register(cmd)
	return cmd
}

func newPoliciesSetCmd() *cobra.Command {
	var (
		output           outputFlags
		maxDays          int
		notice           int
		certificateAfter int
		unlimited        bool
	)

	cmd := &cobra.Command{
		Use:   "set <leave-type>",
		Short: "Create or change the policy of one leave type",
		Long: `Create or change the policy of one leave type. Flags that are not given keep
the current value of an existing policy. Use --unlimited to remove the per-request limit.`,
		Example: `  hrassist leave policies set casual --max 4 --notice 2`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			leaveType := leave.NormalizeLeaveType(args[0])
			return runPolicyCommand(cmd, output, func(ctx context.Context, a *app) error {
				policy := a.policies.Policies(ctx).Policies[leaveType]
				f := cmd.Flags()
				if f.Changed("max") {
					policy.MaxDaysPerRequest = leave.IntPtr(maxDays)
				}
				if unlimited {
					policy.MaxDaysPerRequest = nil
				}
				if f.Changed("notice") {
					policy.RequiresNotice = notice
				}
				if f.Changed("certificate-after") {
					policy.RequiresMedicalCertificateAfter = leave.IntPtr(certificateAfter)
				}

				updated, err := a.policies.Update(ctx, leaveType, policy)
				if err != nil {
					return err
				}
				a.logger.Info("Leave policy updated", "leave_type", leaveType, "policy", updated)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&maxDays, "max", 0, "Maximum days per request")
	cmd.Flags().IntVar(&notice, "notice", 0, "Days of notice required")
	cmd.Flags().IntVar(&certificateAfter, "certificate-after", 0, "Days after which a medical certificate is required")
	cmd.Flags().BoolVar(&unlimited, "unlimited", false, "Remove the maximum days per request")
	cmd.MarkFlagsMutuallyExclusive("max", "unlimited")
	output.register(cmd)
	return cmd
}

func newPoliciesImportCmd() *cobra.Command {
	var output outputFlags
	cmd := &cobra.Command{
		Use:   "import <policies.yaml>",
		Short: "Replace every leave policy with the contents of a YAML file",
		Example: `  # policies.yaml
  leave_types:
    casual:
      max_days_per_request: 5
      requires_notice: 1

  hrassist leave policies import policies.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPolicyCommand(cmd, output, func(ctx context.Context, a *app) error {
				n, err := store.ImportPolicyFile(ctx, a.policies, args[0])
				if err != nil {
					return err
				}
				a.logger.Info("Leave policies imported", "file", args[0], "leave_types", n)
				return nil
			})
		},
	}
	output.register(cmd)
	return cmd
}

func newLeaveHistoryCmd() *cobra.Command {
	var output outputFlags
	cmd := &cobra.Command{
		Use:   "history <employee-id>",
		Short: "Show the recorded leave requests of an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := getApp(ctx)
			if err != nil {
				return err
			}
			db, err := a.requireStore()
			if err != nil {
				return err
			}
			cfg, err := a.outputConfig(output)
			if err != nil {
				return err
			}
			return common.RunCommand(ctx, a.runner(cmd.OutOrStdout()), cfg, nil,
				func([][]byte) (string, error) { return args[0], nil },
				db.LeaveHistory,
				nil)
		},
	}
	output.register(cmd)
	return cmd
}
