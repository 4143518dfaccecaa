package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/msavelyev/stocklive/internal/client/models"
	"github.com/msavelyev/stocklive/internal/client/sync"
)

var (
	addKind  string
	addName  string
	addCat   string
	addStock string
	addPrice string
	addDesc  string

	updKind  string
	updName  string
	updCat   string
	updStock int
	updPrice float64
	updDesc  string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a record to the inventory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *App) error {
			if err := app.gate("add"); err != nil {
				return err
			}
			draft := models.Draft{
				Kind:        addKind,
				Name:        addName,
				Category:    addCat,
				Stock:       addStock,
				Price:       addPrice,
				Description: addDesc,
			}
			id, err := app.gateway.Create(cmd.Context(), draft)
			if err != nil {
				return friendlyError(err)
			}
			cmd.Println(id)
			return nil
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of an existing record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *App) error {
			if err := app.gate("update"); err != nil {
				return err
			}
			var fields models.Fields
			if cmd.Flags().Changed("kind") {
				fields.Kind = &updKind
			}
			if cmd.Flags().Changed("name") {
				fields.Name = &updName
			}
			if cmd.Flags().Changed("category") {
				fields.Category = &updCat
			}
			if cmd.Flags().Changed("stock") {
				fields.Stock = &updStock
			}
			if cmd.Flags().Changed("price") {
				fields.Price = &updPrice
			}
			if cmd.Flags().Changed("desc") {
				fields.Description = &updDesc
			}
			if fields == (models.Fields{}) {
				return fmt.Errorf("nothing to update, pass at least one field flag")
			}
			if err := app.gateway.Update(cmd.Context(), args[0], fields); err != nil {
				return friendlyError(err)
			}
			cmd.Println("updated")
			return nil
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *App) error {
			if err := app.gate("rm"); err != nil {
				return err
			}
			if err := app.gateway.Delete(cmd.Context(), args[0]); err != nil {
				return friendlyError(err)
			}
			cmd.Println("deleted")
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List records, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *App) error {
			if err := app.waitView(cmd.Context(), "list"); err != nil {
				return err
			}
			view := app.sync.View()
			if len(view.Records) == 0 {
				cmd.Println("no records")
				return nil
			}
			printRecords(view.Records)
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate inventory counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *App) error {
			if err := app.waitView(cmd.Context(), "stats"); err != nil {
				return err
			}
			st := sync.ComputeStats(app.sync.View())
			cmd.Printf("records:      %d\n", st.TotalRecords)
			cmd.Printf("categories:   %d\n", st.TotalCategories)
			cmd.Printf("low stock:    %d\n", st.LowStock)
			cmd.Printf("out of stock: %d\n", st.OutOfStock)
			return nil
		})
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories with record counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *App) error {
			if err := app.waitView(cmd.Context(), "categories"); err != nil {
				return err
			}
			counts := sync.CountByCategory(app.sync.View())
			if len(counts) == 0 {
				cmd.Println("no categories")
				return nil
			}
			for _, c := range counts {
				cmd.Printf("%s\t%d\n", c.Category, c.Count)
			}
			return nil
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream the live record view, reprinting on every change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *App) error {
			if err := app.waitView(cmd.Context(), "watch"); err != nil {
				return err
			}
			printRecords(app.sync.View().Records)
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case <-app.sync.Updates():
					cmd.Println()
					printRecords(app.sync.View().Records)
				}
			}
		})
	},
}

func printRecords(records []models.Record) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tNAME\tCATEGORY\tSTOCK\tPRICE\tCREATED")
	for _, r := range records {
		created := ""
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2f\t%s\n",
			r.ID, r.Kind, r.Name, r.Category, r.Stock, r.Price, created)
	}
	w.Flush()
}

func init() {
	addCmd.Flags().StringVar(&addKind, "kind", "", "record kind (product or store)")
	addCmd.Flags().StringVar(&addName, "name", "", "record name")
	addCmd.Flags().StringVar(&addCat, "category", "", "category label")
	addCmd.Flags().StringVar(&addStock, "stock", "", "stock count")
	addCmd.Flags().StringVar(&addPrice, "price", "", "unit price")
	addCmd.Flags().StringVar(&addDesc, "desc", "", "free-form description")

	updateCmd.Flags().StringVar(&updKind, "kind", "", "record kind (product or store)")
	updateCmd.Flags().StringVar(&updName, "name", "", "record name")
	updateCmd.Flags().StringVar(&updCat, "category", "", "category label")
	updateCmd.Flags().IntVar(&updStock, "stock", 0, "stock count")
	updateCmd.Flags().Float64Var(&updPrice, "price", 0, "unit price")
	updateCmd.Flags().StringVar(&updDesc, "desc", "", "free-form description")

	rootCmd.AddCommand(addCmd, updateCmd, rmCmd, listCmd, statsCmd, categoriesCmd, watchCmd)
}
