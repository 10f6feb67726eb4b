package cmd

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/shopease/shopease/internal/common/app"
	"github.com/shopease/shopease/internal/common/shoperrors"
	"github.com/shopease/shopease/internal/shop/service"
	"github.com/shopease/shopease/internal/shopctl"
)

func productsCmd(a *shopctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Bulk load, read and query products",
	}
	cmd.AddCommand(
		productsSeedCmd(a),
		productsReadCmd(a),
		productsProbeCmd(a),
		productsIndexesCmd(a),
		productsTruncateCmd(a),
		productsListCmd(a),
		productsSearchCmd(a),
		productsCategoryCmd(a),
		productsPriceCmd(a),
		productsGetCmd(a),
		productsCategoriesCmd(a),
		productsStockCmd(a),
	)
	return cmd
}

func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page", 1, "Page to show, starting at 1")
	cmd.Flags().Int("page-size", service.DefaultPageSize, "Products per page, at most 1000")
}

func pageFlags(cmd *cobra.Command) (int, int) {
	page, _ := cmd.Flags().GetInt("page")
	pageSize, _ := cmd.Flags().GetInt("page-size")
	return page, pageSize
}

func productsSeedCmd(a *shopctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert generated products in concurrent batches",
		Long: `Insert generated products in concurrent batches.

Products get ids P000000001 onwards. Ids that already exist are skipped, so use --truncate to
start from an empty table. A failed batch is reported and the others carry on.`,
		Args: cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.SeedOptions()
			flags := cmd.Flags()
			if flags.Changed("count") {
				opts.Count, _ = flags.GetInt("count")
			}
			if flags.Changed("batch-size") {
				opts.BatchSize, _ = flags.GetInt("batch-size")
			}
			if flags.Changed("workers") {
				opts.Workers, _ = flags.GetInt("workers")
			}
			opts.Truncate, _ = flags.GetBool("truncate")

			ctx, cancel := app.ContextWithShutdown(cmd.Context())
			defer cancel()
			return a.SeedProducts(ctx, opts)
		},
	}
	cmd.Flags().Int("count", 0, "Number of products to insert (default from ingest.totalRecords)")
	cmd.Flags().Int("batch-size", 0, "Products per batch (default from ingest.batchSize)")
	cmd.Flags().Int("workers", 0, "Batches in flight at once (default from ingest.workers)")
	cmd.Flags().Bool("truncate", false, "Delete every product first")
	return cmd
}

func productsReadCmd(a *shopctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read every product back, page by page",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageSize := a.Params.Config.Ingest.ReadPageSize
			if cmd.Flags().Changed("page-size") {
				pageSize, _ = cmd.Flags().GetInt("page-size")
			}
			ctx, cancel := app.ContextWithShutdown(cmd.Context())
			defer cancel()
			return a.ReadProducts(ctx, pageSize)
		},
	}
	cmd.Flags().Int("page-size", 0, "Products per page (default from ingest.readPageSize)")
	return cmd
}

func productsProbeCmd(a *shopctl.App) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Time single page reads and searches",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ProbeProducts(cmd.Context())
		},
	}
}

func productsIndexesCmd(a *shopctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indexes",
		Short: "Create the indexes that speed up listing and searching",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			return a.CreateIndexes(cmd.Context(), dryRun)
		},
	}
	cmd.Flags().Bool("dry-run", false, "Only print the statements")
	return cmd
}

func productsTruncateCmd(a *shopctl.App) *cobra.Command {
	return &cobra.Command{
		Use:   "truncate",
		Short: "Delete every product and the order lines referring to them",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.TruncateProducts(cmd.Context())
		},
	}
}

func productsListCmd(a *shopctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products ordered by id",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all, _ := cmd.Flags().GetBool("all"); all {
				return a.AllProducts(cmd.Context())
			}
			page, pageSize := pageFlags(cmd)
			return a.ListProducts(cmd.Context(), page, pageSize)
		},
	}
	addPageFlags(cmd)
	cmd.Flags().Bool("all", false, "List every product, ordered by category and name")
	return cmd
}

func productsSearchCmd(a *shopctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Find products whose name or category contains keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all, _ := cmd.Flags().GetBool("all"); all {
				return a.SearchAllProducts(cmd.Context(), args[0])
			}
			page, pageSize := pageFlags(cmd)
			return a.SearchProducts(cmd.Context(), args[0], page, pageSize)
		},
	}
	addPageFlags(cmd)
	cmd.Flags().Bool("all", false, "List every match, ordered by category and name")
	return cmd
}

func productsCategoryCmd(a *shopctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category <categoryId>",
		Short: "List the products of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, pageSize := pageFlags(cmd)
			return a.ProductsByCategory(cmd.Context(), args[0], page, pageSize)
		},
	}
	addPageFlags(cmd)
	return cmd
}

func productsPriceCmd(a *shopctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "List products within a price range, cheapest first",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			min, err := decimalFlag(cmd, "min")
			if err != nil {
				return err
			}
			max, err := decimalFlag(cmd, "max")
			if err != nil {
				return err
			}
			page, pageSize := pageFlags(cmd)
			return a.ProductsByPrice(cmd.Context(), min, max, page, pageSize)
		},
	}
	addPageFlags(cmd)
	cmd.Flags().String("min", "0", "Lowest price")
	cmd.Flags().String("max", "1000000", "Highest price")
	return cmd
}

func decimalFlag(cmd *cobra.Command, name string) (decimal.Decimal, error) {
	s, _ := cmd.Flags().GetString(name)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.WithStack(&shoperrors.ErrInvalidArgument{
			Name:    name,
			Value:   s,
			Message: "not a number",
		})
	}
	return d, nil
}

func productsGetCmd(a *shopctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <productId>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			switch output {
			case shopctl.OutputTable, shopctl.OutputYaml:
				a.Params.OutputFormat = output
			default:
				return errors.WithStack(&shoperrors.ErrInvalidArgument{
					Name:    "output",
					Value:   output,
					Message: "must be table or yaml",
				})
			}
			return a.GetProduct(cmd.Context(), args[0])
		},
	}
	cmd.Flags().StringP("output", "o", shopctl.OutputTable, "Output format: table or yaml")
	return cmd
}

func productsCategoriesCmd(a *shopctl.App) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Categories(cmd.Context())
		},
	}
}

func productsStockCmd(a *shopctl.App) *cobra.Command {
	return &cobra.Command{
		Use:   "stock <productId> <quantity>",
		Short: "Set the stock of a product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stock, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.WithStack(&shoperrors.ErrInvalidArgument{
					Name:    "quantity",
					Value:   args[1],
					Message: "not a whole number",
				})
			}
			return a.UpdateStock(cmd.Context(), args[0], stock)
		},
	}
}
