package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"assembly-service/internal/model"
	"assembly-service/internal/store"
	"assembly-service/pkg/config"
	"assembly-service/pkg/database"
	"assembly-service/pkg/jwtutil"
)

func openDB() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(&cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the governance tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			if err := database.Migrate(db, model.Models()...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables on %s\n", len(model.Models()), cfg.DB.Driver)
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		userID   uint
		tenantID uint
		role     string
		email    string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed identity token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == 0 || tenantID == 0 {
				return errors.New("--user and --tenant are required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			jwtUtil := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
				SigningKey:      cfg.JWT.SigningKey,
				ExpirationHours: cfg.JWT.ExpirationHours,
			})
			token, err := jwtUtil.GenerateTokenWithTenant(email, userID, &tenantID, "", role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "user id")
	cmd.Flags().UintVar(&tenantID, "tenant", 0, "tenant id")
	cmd.Flags().StringVar(&role, "role", "resident", "role: admin, organizer or resident")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	return cmd
}

func seedPropertiesCmd() *cobra.Command {
	var tenantID uint
	cmd := &cobra.Command{
		Use:   "seed-properties <file.csv>",
		Short: "Load properties from a CSV of unit,owner_user_id,coefficient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantID == 0 {
				return errors.New("--tenant is required")
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			properties, err := readProperties(f)
			if err != nil {
				return err
			}

			_, db, err := openDB()
			if err != nil {
				return err
			}
			total := decimal.Zero
			err = store.New(db).Transaction(context.Background(), tenantID, func(tx *store.TenantStore) error {
				for _, p := range properties {
					if err := tx.CreateProperty(p); err != nil {
						return fmt.Errorf("unit %s: %w", p.Unit, err)
					}
					total = total.Add(p.Coefficient)
				}
				return nil
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loaded %d properties, coefficient total %s\n", len(properties), total)
			if !total.Equal(decimal.NewFromInt(1)) && !total.Equal(decimal.NewFromInt(100)) {
				fmt.Fprintln(out, "Warning: coefficients do not add up to 1 or 100; quorum percentages will be relative to this total")
			}
			return nil
		},
	}
	cmd.Flags().UintVar(&tenantID, "tenant", 0, "tenant id")
	return cmd
}

// readProperties parses unit,owner_user_id,coefficient rows. A header row is skipped.
func readProperties(r io.Reader) ([]*model.Property, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	var properties []*model.Property
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && strings.EqualFold(record[0], "unit") {
			continue
		}
		owner, err := strconv.ParseUint(record[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid owner_user_id %q", line, record[1])
		}
		coefficient, err := decimal.NewFromString(record[2])
		if err != nil || coefficient.IsNegative() {
			return nil, fmt.Errorf("line %d: invalid coefficient %q", line, record[2])
		}
		properties = append(properties, &model.Property{
			Unit:        record[0],
			OwnerUserID: uint(owner),
			Coefficient: coefficient,
		})
	}
	return properties, nil
}

func auditCmd() *cobra.Command {
	var tenantID, assemblyID uint
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print the audit trail of an assembly as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantID == 0 || assemblyID == 0 {
				return errors.New("--tenant and --assembly are required")
			}
			_, db, err := openDB()
			if err != nil {
				return err
			}
			entries, err := store.New(db).Tenant(context.Background(), tenantID).AuditTrail(assemblyID)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, entry := range entries {
				if err := enc.Encode(entry); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().UintVar(&tenantID, "tenant", 0, "tenant id")
	cmd.Flags().UintVar(&assemblyID, "assembly", 0, "assembly id")
	return cmd
}
