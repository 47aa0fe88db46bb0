package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"storefront_v1_202610/internal/app"
	"storefront_v1_202610/internal/service"
)

// ImportFile 属性导入文件
//
//	products:
//	  - product_id: 12
//	    attributes:
//	      - {name: Renk, value: Kırmızı}
type ImportFile struct {
	Products []ImportProduct `yaml:"products"`
}

// ImportProduct 单个商品的原始属性
type ImportProduct struct {
	ProductID  int64                  `yaml:"product_id"`
	Attributes []service.RawAttribute `yaml:"attributes"`
}

// ParseImportFile 解析并校验导入文件
func ParseImportFile(r io.Reader) (*ImportFile, error) {
	var f ImportFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("import file is empty")
		}
		return nil, fmt.Errorf("parse import file: %w", err)
	}
	for i, p := range f.Products {
		if p.ProductID <= 0 {
			return nil, fmt.Errorf("products[%d]: product_id is required", i)
		}
	}
	return &f, nil
}

type importSummary struct {
	ProductID int64                `yaml:"product_id"`
	Imported  int                  `yaml:"imported"`
	Skipped   []service.ImportSkip `yaml:"skipped,omitempty"`
	Error     string               `yaml:"error,omitempty"`
}

func newImportCmd(open Opener) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import raw name/value attribute pairs from a YAML file",
		Long:  "Each product is imported on its own; a failing product is reported and the rest continue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("-f/--file is required")
			}
			fh, err := os.Open(file)
			if err != nil {
				return err
			}
			defer fh.Close()

			parsed, err := ParseImportFile(fh)
			if err != nil {
				return err
			}

			return withDeps(cmd, open, func(ctx context.Context, deps *app.Dependencies) error {
				summaries := make([]importSummary, 0, len(parsed.Products))
				for _, p := range parsed.Products {
					sum := importSummary{ProductID: p.ProductID}
					report, err := deps.Services.Attribute.ImportRawAttributes(ctx, p.ProductID, p.Attributes)
					if err != nil {
						sum.Error = err.Error()
					} else {
						sum.Imported = report.Imported
						sum.Skipped = report.Skipped
					}
					summaries = append(summaries, sum)
				}
				return printYAML(cmd.OutOrStdout(), map[string]interface{}{"results": summaries})
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with products and their raw attributes")
	return cmd
}
