package usecase

import (
	"context"
	"fmt"

	"github.com/fadilmartias/career-assessment/internal/logger"
	"github.com/fadilmartias/career-assessment/internal/model"
	"github.com/fadilmartias/career-assessment/internal/repository"
	"github.com/fadilmartias/career-assessment/internal/service"
	"github.com/pgvector/pgvector-go"
)

type CareerUsecase struct {
	careerRepo *repository.CareerRepository
	embedder   service.Embedder
	careers    []model.Career
	log        *logger.Logger
}

func NewCareerUsecase(careerRepo *repository.CareerRepository, embedder service.Embedder, baseLog *logger.Logger) *CareerUsecase {
	return &CareerUsecase{
		careerRepo: careerRepo,
		embedder:   embedder,
		careers:    seedCareers,
		log:        baseLog.With("usecase", "CareerUsecase"),
	}
}

// SeedCareerEmbeddings embeds every seed career and upserts it by title. It stops at the
// first failure; careers already written stay written, so the call can be retried.
func (uc *CareerUsecase) SeedCareerEmbeddings(ctx context.Context) (int, error) {
	if uc.embedder == nil {
		return 0, fmt.Errorf("no embedding provider configured")
	}
	for i := range uc.careers {
		career := uc.careers[i]
		emb, err := uc.embedder.GenerateEmbedding(ctx, career.Title+"\n"+career.Description)
		if err != nil {
			return i, fmt.Errorf("embed %q: %w", career.Title, err)
		}
		career.Embedding = pgvector.NewVector(emb)
		if err := uc.careerRepo.Upsert(ctx, &career); err != nil {
			return i, fmt.Errorf("store %q: %w", career.Title, err)
		}
	}
	uc.log.Info("career embeddings seeded", "count", len(uc.careers))
	return len(uc.careers), nil
}

var seedCareers = []model.Career{
	{Title: "Software Engineer", Cluster: "Technology", Description: "Designs, builds and maintains software systems. Suits analytical problem solvers who enjoy logic, continuous learning and building things that scale."},
	{Title: "Data Scientist", Cluster: "Technology", Description: "Turns data into decisions using statistics, experimentation and machine learning. Suits curious, quantitative people comfortable with ambiguity."},
	{Title: "UX Designer", Cluster: "Design", Description: "Researches user needs and shapes product experiences through prototypes and testing. Suits empathetic, visual thinkers who like iterating with feedback."},
	{Title: "Product Manager", Cluster: "Business", Description: "Owns what a product team builds and why, balancing users, business and technology. Suits communicators who decide under incomplete information."},
	{Title: "Registered Nurse", Cluster: "Healthcare", Description: "Provides and coordinates patient care in clinical settings. Suits caring, resilient people who stay calm under pressure and value helping others."},
	{Title: "Secondary School Teacher", Cluster: "Education", Description: "Plans and delivers lessons and mentors students. Suits patient explainers who value impact, structure and working with young people."},
	{Title: "Financial Analyst", Cluster: "Finance", Description: "Models company performance and advises on investments and budgets. Suits detail-oriented, numerate people who like structured analysis."},
	{Title: "Marketing Manager", Cluster: "Business", Description: "Plans campaigns, positions products and measures growth. Suits creative, persuasive people who enjoy both storytelling and metrics."},
	{Title: "Mechanical Engineer", Cluster: "Engineering", Description: "Designs and tests machines and physical systems. Suits hands-on problem solvers with strong spatial and mathematical reasoning."},
	{Title: "Clinical Psychologist", Cluster: "Healthcare", Description: "Assesses and treats mental health conditions through therapy. Suits empathetic listeners with patience and a research mindset."},
	{Title: "Entrepreneur", Cluster: "Business", Description: "Starts and grows a venture, wearing many hats. Suits self-directed risk takers who value autonomy and tolerate uncertainty."},
	{Title: "Graphic Designer", Cluster: "Design", Description: "Creates visual identities, layouts and illustrations. Suits artistic people who value creative expression and craft."},
	{Title: "Electrician", Cluster: "Skilled Trades", Description: "Installs and repairs electrical systems. Suits practical, safety-minded people who like working with their hands and seeing tangible results."},
	{Title: "Social Worker", Cluster: "Public Service", Description: "Supports individuals and families through hardship and connects them to services. Suits compassionate advocates driven by social impact."},
	{Title: "Lawyer", Cluster: "Legal", Description: "Advises clients and argues cases. Suits articulate, analytical people who enjoy debate, research and high-stakes responsibility."},
	{Title: "Environmental Scientist", Cluster: "Science", Description: "Studies ecosystems and advises on environmental protection. Suits curious, mission-driven people who like fieldwork and data."},
}
