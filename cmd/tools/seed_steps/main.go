package main

import (
	"context"
	"flag"
	"log"
	"os"

	"onboarding-tracker/internal/storage"
	"onboarding-tracker/internal/workflow"
)

// defaultSteps is the standard onboarding sequence a new department starts
// from. Admins reorder and prune per department afterwards.
var defaultSteps = []workflow.StepTemplate{
	{StepNumber: 1, Type: workflow.StepOfferLetter, Title: "Send Offer Letter", Description: "Share the offer letter with {{firstName}} and walk through compensation.", Icon: "mail", DueDateOffset: -7, ScheduledTime: "10:00"},
	{StepNumber: 2, Type: workflow.StepOfferReminder, Title: "Offer Signing Reminder", Description: "Follow up with {{firstName}} on the unsigned offer.", Icon: "bell", IsAuto: true, DueDateOffset: -6, ScheduledTime: "14:00"},
	{StepNumber: 3, Type: workflow.StepWelcomeEmail, Title: "Welcome Email", Description: "Send the welcome pack and first-day logistics.", Icon: "mail", IsAuto: true, DueDateOffset: -3, ScheduledTime: "09:00"},
	{StepNumber: 4, Type: workflow.StepOnboardingForm, Title: "Onboarding Form", Description: "Collect personal and payroll details from {{firstName}}.", Icon: "clipboard", DueDateOffset: -2, ScheduledTime: "09:00"},
	{StepNumber: 5, Type: workflow.StepWhatsappAddition, Title: "Add to WhatsApp Groups", Description: "Add {{firstName}} to the {{department}} and all-hands groups.", Icon: "message-circle", DueDateOffset: 0, ScheduledTime: "09:00"},
	{StepNumber: 6, Type: workflow.StepHRInduction, Title: "HR Induction", Description: "Policies, leave, payroll and tooling walkthrough.", Icon: "users", DueDateOffset: 0, ScheduledTime: "10:00"},
	{StepNumber: 7, Type: workflow.StepCEOInduction, Title: "CEO Induction", Description: "Company vision session with the CEO.", Icon: "star", DueDateOffset: 1, ScheduledTime: "11:00"},
	{StepNumber: 8, Type: workflow.StepDepartmentInduction, Title: "{{department}} Induction", Description: "Team structure and current projects for {{position}}.", Icon: "briefcase", DueDateOffset: 1, ScheduledTime: "14:00"},
	{StepNumber: 9, Type: workflow.StepTrainingPlan, Title: "Share Training Plan", Description: "Send the 30-day training plan for {{position}}.", Icon: "book", DueDateOffset: 2, ScheduledTime: "10:00"},
	{StepNumber: 10, Type: workflow.StepCheckinCall, Title: "First Week Check-in", Description: "Short call with {{firstName}} to catch early blockers.", Icon: "phone", DueDateOffset: 7, ScheduledTime: "15:00"},
}

func main() {
	var dryRun bool
	var department string
	flag.BoolVar(&dryRun, "dry-run", true, "If true, do not persist templates; just print them")
	flag.StringVar(&department, "department", "", "Department to seed (required)")
	flag.Parse()

	if department == "" {
		log.Fatal("-department is required")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	log.Printf("Connecting to DB...")
	db, err := storage.NewDB(dbURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	existing, err := db.ListStepTemplates(ctx, department)
	if err != nil {
		log.Fatalf("failed to list existing templates: %v", err)
	}
	if len(existing) > 0 {
		log.Printf("Department %q already has %d templates; upserts will overwrite matching step numbers", department, len(existing))
	}

	for _, t := range defaultSteps {
		t.Department = department
		if dryRun {
			log.Printf("[dry-run] Would upsert step %d (%s) %q", t.StepNumber, t.Type, t.Title)
			continue
		}
		if err := db.UpsertStepTemplate(ctx, &t); err != nil {
			log.Printf("failed to upsert step %d: %v", t.StepNumber, err)
			continue
		}
		log.Printf("Upserted step %d (%s) %q", t.StepNumber, t.Type, t.Title)
	}

	log.Printf("Seed run complete")
}
