package cli

import (
	"context"

	"biteme-be/internal/catalog"
	"biteme-be/internal/user"
	"biteme-be/internal/utils"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

const operatorID = "bitemectl"

// Backend is the set of services the operator commands act on.
type Backend struct {
	Catalog catalog.Service
	Users   user.Service
	Close   func(ctx context.Context) error
}

type backendFactory func(ctx context.Context) (*Backend, error)

func newRootCmd(open backendFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bitemectl",
		Short:         "Operate a BiteMe deployment",
		Long:          "bitemectl seeds the restaurant catalog and manages admin accounts directly against the store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newSeedCmd(open))
	cmd.AddCommand(newPromoteCmd(open))
	cmd.AddCommand(newDemoteCmd(open))
	return cmd
}

// NewRootCmdForTest returns the root command wired to a fixed backend.
func NewRootCmdForTest(b *Backend) *cobra.Command {
	return newRootCmd(func(context.Context) (*Backend, error) { return b, nil })
}

func Execute() error {
	return newRootCmd(openBackend).Execute()
}

// operatorContext marks the call as an internal admin action.
func operatorContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = utils.SetUserContext(ctx, operatorID, "", utils.RoleAdmin)
	return utils.WithInternalRequest(ctx)
}

func withBackend(cmd *cobra.Command, open backendFactory, fn func(ctx context.Context, b *Backend) error) error {
	ctx := operatorContext(cmd.Context())

	b, err := open(ctx)
	if err != nil {
		return err
	}
	if b.Close != nil {
		defer func() { _ = b.Close(context.Background()) }()
	}
	return fn(ctx, b)
}
