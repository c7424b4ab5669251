package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/matmov/alocador/internal/allocation"
)

// SQL is the concrete RowSource/RowSink backed by database/sql + sqlx + the
// lib/pq driver, against the service's Postgres schema. It issues plain
// single-table SELECTs against the base tables, with no views and no joins;
// joining (e.g. recovering enrolled students' school/grade from `turma`) is
// done in memory by internal/loader.
type SQL struct {
	db *sqlx.DB
}

// Open establishes a connection to dsn (a postgres connection string) and
// verifies it with a ping. Connection failure here is fatal: it is
// acquired once at process entry, before any input has been read.
func Open(ctx context.Context, dsn string) (*SQL, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connecting: %w", err)
	}
	return &SQL{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *SQL) Close() error {
	return s.db.Close()
}

type parametroRow struct {
	Chave string `db:"chave"`
	Valor int    `db:"valor"`
}

func (s *SQL) Parameters(ctx context.Context) (map[string]int, error) {
	var rows []parametroRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT chave, valor FROM parametro`); err != nil {
		return nil, fmt.Errorf("store: reading parametro: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Chave] = r.Valor
	}
	return out, nil
}

type alunoRow struct {
	ID       int  `db:"id"`
	TurmaID  int  `db:"turma_id"`
	Reprova  bool `db:"reprova"`
	Continua bool `db:"continua"`
}

type formularioRow struct {
	ID             int     `db:"id"`
	SchoolID       int     `db:"escola_id"`
	GradeID        int     `db:"serie_id"`
	EnrollmentDate *string `db:"data_inscricao"`
	ReferenceYear  int     `db:"ano_referencia"`
}

func (s *SQL) Students(ctx context.Context) ([]EnrolledRow, []WaitlistRow, error) {
	var alunos []alunoRow
	if err := s.db.SelectContext(ctx, &alunos, `SELECT id, turma_id, reprova, continua FROM aluno`); err != nil {
		return nil, nil, fmt.Errorf("store: reading aluno: %w", err)
	}
	var formularios []formularioRow
	query := `SELECT id, escola_id, serie_id, to_char(data_inscricao, 'DD/MM/YYYY') AS data_inscricao, ano_referencia FROM formulario_inscricao`
	if err := s.db.SelectContext(ctx, &formularios, query); err != nil {
		return nil, nil, fmt.Errorf("store: reading formulario_inscricao: %w", err)
	}

	enrolled := make([]EnrolledRow, len(alunos))
	for i, r := range alunos {
		enrolled[i] = EnrolledRow{ID: r.ID, TurmaID: r.TurmaID, Reprova: r.Reprova, Continua: r.Continua}
	}
	waitlisted := make([]WaitlistRow, len(formularios))
	for i, r := range formularios {
		waitlisted[i] = WaitlistRow{ID: r.ID, SchoolID: r.SchoolID, GradeID: r.GradeID, EnrollmentDate: r.EnrollmentDate, ReferenceYear: r.ReferenceYear}
	}
	return enrolled, waitlisted, nil
}

type serieRow struct {
	ID    int    `db:"id"`
	Nome  string `db:"nome"`
	Ativa bool   `db:"ativa"`
}

func (s *SQL) Grades(ctx context.Context) ([]GradeRow, error) {
	var rows []serieRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, nome, ativa FROM serie`); err != nil {
		return nil, fmt.Errorf("store: reading serie: %w", err)
	}
	out := make([]GradeRow, len(rows))
	for i, r := range rows {
		out[i] = GradeRow{ID: r.ID, Name: r.Nome, Active: r.Ativa}
	}
	return out, nil
}

type turmaRow struct {
	ID       int `db:"id"`
	SchoolID int `db:"escola_id"`
	GradeID  int `db:"serie_id"`
}

func (s *SQL) Classes(ctx context.Context) ([]ClassRow, error) {
	var rows []turmaRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, escola_id, serie_id FROM turma ORDER BY id`); err != nil {
		return nil, fmt.Errorf("store: reading turma: %w", err)
	}
	out := make([]ClassRow, len(rows))
	for i, r := range rows {
		out[i] = ClassRow{ID: r.ID, SchoolID: r.SchoolID, GradeID: r.GradeID}
	}
	return out, nil
}

type escolaRow struct {
	ID       int    `db:"id"`
	RegionID int    `db:"regiao_id"`
	Nome     string `db:"nome"`
}

func (s *SQL) Schools(ctx context.Context) ([]SchoolRow, error) {
	var rows []escolaRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, regiao_id, nome FROM escola`); err != nil {
		return nil, fmt.Errorf("store: reading escola: %w", err)
	}
	out := make([]SchoolRow, len(rows))
	for i, r := range rows {
		out[i] = SchoolRow{ID: r.ID, RegionID: r.RegionID, Name: r.Nome}
	}
	return out, nil
}

type regiaoRow struct {
	ID   int    `db:"id"`
	Nome string `db:"nome"`
}

func (s *SQL) Regions(ctx context.Context) ([]RegionRow, error) {
	var rows []regiaoRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, nome FROM regiao`); err != nil {
		return nil, fmt.Errorf("store: reading regiao: %w", err)
	}
	out := make([]RegionRow, len(rows))
	for i, r := range rows {
		out[i] = RegionRow{ID: r.ID, Name: r.Nome}
	}
	return out, nil
}

// WriteSolution replaces sol_aluno, sol_priorizacao_formulario and
// sol_turma transactionally: all three tables are truncated and
// repopulated within one transaction, so a reader never observes a
// partially-written solution.
func (s *SQL) WriteSolution(ctx context.Context, sol allocation.Solution) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: beginning write transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := truncateSolutionTables(ctx, tx); err != nil {
		return err
	}

	for _, p := range sol.EnrolledPlaced {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sol_aluno (aluno_id, turma_id) VALUES ($1, $2)`,
			p.Student.Cod.ID, p.ClassID); err != nil {
			return fmt.Errorf("store: writing sol_aluno: %w", err)
		}
	}

	for _, p := range sol.WaitlistPlaced {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sol_priorizacao_formulario (formulario_id, turma_id, status_id) VALUES ($1, $2, NULL)`,
			p.Student.Cod.ID, p.ClassID); err != nil {
			return fmt.Errorf("store: writing sol_priorizacao_formulario: %w", err)
		}
	}

	for _, c := range sol.OpenedClasses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sol_turma (turma_id, nome, escola_id, serie_id, qtd_alunos, qtd_max_alunos, qtd_professores_acd, qtd_professores_pedagogico, aprova)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL)`,
			c.Class.ClassID, c.Class.Name, c.Class.SchoolID, c.Class.GradeID, c.StudentCount,
			sol.QtdMaxAlunos, sol.QtdProfessoresAcd, sol.QtdProfessoresPedagogico); err != nil {
			return fmt.Errorf("store: writing sol_turma: %w", err)
		}
	}

	return tx.Commit()
}

// Clear empties the three output tables. Called when a run concludes
// that no allocation is feasible, so stale output from a previous run
// isn't mistaken for a current one.
func (s *SQL) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: beginning clear transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := truncateSolutionTables(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func truncateSolutionTables(ctx context.Context, tx *sqlx.Tx) error {
	for _, table := range []string{"sol_aluno", "sol_priorizacao_formulario", "sol_turma"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", table)); err != nil {
			return fmt.Errorf("store: truncating %s: %w", table, err)
		}
	}
	return nil
}
