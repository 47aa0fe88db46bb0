package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"storefront_v1_202610/internal/app"
	"storefront_v1_202610/internal/config"
	"storefront_v1_202610/pkg/logger"
)

// Opener 按配置创建依赖，测试中替换为 sqlite
type Opener func(ctx context.Context) (*app.Dependencies, error)

// DefaultOpener 读取环境配置并连接数据库
func DefaultOpener(ctx context.Context) (*app.Dependencies, error) {
	cfg := config.Load()
	log := logger.New(&logger.Config{
		Development: cfg.IsDevelopment(),
		Level:       cfg.Logger.Level,
		Encoding:    "console",
	})
	return app.New(ctx, cfg, log)
}

// NewRootCmd 创建 storectl 根命令
func NewRootCmd(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "storectl",
		Short:         "Storefront catalog and currency maintenance",
		Long:          "storectl runs catalog batch jobs (variant auto-merge, attribute import and consolidation) and exchange rate refreshes against the storefront database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newAutoMergeCmd(open),
		newRatesCmd(open),
		newImportCmd(open),
		newConsolidateCmd(open),
		newTranslationsCmd(open),
	)
	return root
}

// Execute runs the CLI
func Execute() error {
	return NewRootCmd(DefaultOpener).Execute()
}

// withDeps 打开依赖并保证释放
func withDeps(cmd *cobra.Command, open Opener, fn func(ctx context.Context, deps *app.Dependencies) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	deps, err := open(ctx)
	if err != nil {
		return fmt.Errorf("初始化失败: %w", err)
	}
	defer deps.Close()
	return fn(ctx, deps)
}

// printYAML 以 YAML 输出结果
func printYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}
