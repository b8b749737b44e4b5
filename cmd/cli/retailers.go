package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var retailersClass string

// retailersCmd represents the retailers command
var retailersCmd = &cobra.Command{
	Use:   "retailers",
	Short: "List the retailer catalog",
	Long: `List the retailers in the crawl catalog with their adapter, source count
and credential class. Use --class to narrow to public or credentialed chains.`,
	Example: `  price-crawler retailers
  price-crawler retailers --class public
  price-crawler retailers --class auth`,
	Args: cobra.NoArgs,
	RunE: runRetailers,
}

func init() {
	rootCmd.AddCommand(retailersCmd)

	retailersCmd.Flags().StringVar(&retailersClass, "class", "all", "Credential class filter: all, public, or auth")
}

func runRetailers(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	list := catalog.Filter(retailersClass)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SLUG\tNAME\tADAPTER\tSOURCES\tCREDS\tFOLDER")
	fmt.Fprintln(w, "----\t----\t-------\t-------\t-----\t------")

	for _, r := range list {
		adapter := "-"
		if len(r.Sources) > 0 {
			adapter = string(r.Sources[0].Adapter)
			if adapter == "" {
				adapter = "generic"
			}
		}
		creds := "public"
		if r.NeedCreds {
			creds = "login"
		}
		folder := r.Folder
		if folder == "" {
			folder = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", r.Slug, r.Name, adapter, len(r.Sources), creds, folder)
	}
	w.Flush()

	fmt.Printf("\n%d retailers\n", len(list))
	return nil
}
