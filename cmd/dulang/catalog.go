package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dulang/warehouse-verify/pkg/catalog"
	"github.com/spf13/cobra"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse the seeded catalog",
	}
	cmd.AddCommand(catalogSuppliersCmd())
	cmd.AddCommand(catalogProductsCmd())
	cmd.AddCommand(catalogHistoryCmd())
	return cmd
}

func openCatalog() (*catalog.Memory, error) {
	_, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return catalog.NewSeededMemory(logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func catalogSuppliersCmd() *cobra.Command {
	var (
		query      string
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "suppliers",
		Short: "List suppliers with stock verification rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := openCatalog()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			suppliers, err := cat.Suppliers(ctx, query)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), suppliers)
			}
			return printSuppliers(ctx, cmd.OutOrStdout(), cat, suppliers)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by name or type")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func printSuppliers(ctx context.Context, out io.Writer, cat catalog.Provider, suppliers []catalog.Supplier) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tPRODUCTS\tSTOCK\tVERIFIED")
	for _, s := range suppliers {
		st, err := catalog.SupplierStock(ctx, cat, s.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d%%\n", s.ID, s.Name, s.Type, s.Products, st.TotalStock, st.Rate)
	}
	return tw.Flush()
}

func catalogProductsCmd() *cobra.Command {
	var (
		supplier   string
		query      string
		status     string
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := catalog.ParseStatus(status)
			if err != nil {
				return err
			}
			cat, err := openCatalog()
			if err != nil {
				return err
			}
			products, err := cat.Products(cmd.Context(), catalog.ProductFilter{Supplier: supplier, Query: query, Status: st})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), products)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSUPPLIER\tCATEGORY\tSTATUS")
			for _, p := range products {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Supplier, p.Category, p.Status)
			}
			p := catalog.ComputeProgress(products)
			fmt.Fprintf(tw, "\n%d of %d verified (%.0f%%)\n", p.Verified, p.Total, p.Percent)
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&supplier, "supplier", "s", "", "supplier ID")
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by name, category or supplier")
	cmd.Flags().StringVar(&status, "status", "all", "all, verified or pending")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func catalogHistoryCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "history [product-id]",
		Short: "Show a product's verification history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := openCatalog()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			history, err := cat.History(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), history)
			}
			stock := catalog.ComputeStock(history)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tVERIFIER\tCONDITION\tSTOCK\tVERIFIED\tLOCATION")
			for _, v := range history {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\t%s\n",
					v.Date.Format("2006-01-02"), v.Verifier.Name, v.Condition, v.Stock, v.Verified, v.Location)
			}
			fmt.Fprintf(tw, "\ntotal %d, verified %d (%d%%)\n", stock.TotalStock, stock.VerifiedStock, stock.Rate)
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
