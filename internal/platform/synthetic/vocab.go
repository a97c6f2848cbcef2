package synthetic

var (
	firstNames = []string{
		"John", "Jane", "Ahmed", "Sarah", "Michael", "Emma", "David", "Maria", "James", "Lisa",
		"Robert", "Patricia", "Jennifer", "Mohammed", "Wei", "Sofia", "Amir", "Isabella", "Ethan", "Olivia",
	}

	lastNames = []string{
		"Smith", "Johnson", "Hadary", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Wilson",
		"Anderson", "Thomas", "Jackson", "White", "Harris", "Martin", "Thompson", "Moore", "Taylor", "Lee",
	}

	symptoms = []string{
		"abdominal pain", "chest pain", "headache", "fever", "nausea", "vomiting",
		"dizziness", "shortness of breath", "back pain", "joint pain",
		"muscle spasms", "difficulty walking", "cough", "sore throat",
		"fatigue", "weakness", "anxiety", "depression", "insomnia",
		"difficulty breathing", "rash", "itching", "swelling",
		"blurred vision", "ear pain", "neck pain", "shoulder pain",
		"knee pain", "ankle pain", "numbness", "tingling",
		"loss of appetite", "weight loss", "night sweats",
	}

	conditions = []string{
		"hypertension", "diabetes", "asthma", "arthritis", "anxiety",
		"depression", "GERD", "migraine", "hypothyroidism",
		"high cholesterol", "obesity", "sleep apnea", "chronic pain",
		"fibromyalgia", "osteoporosis", "previous disc herniation",
		"coronary artery disease", "chronic kidney disease",
		"chronic bronchitis", "emphysema", "allergic rhinitis",
		"eczema", "psoriasis", "glaucoma", "cataracts",
	}

	medications = []string{
		"lisinopril 10mg", "metformin 500mg", "omeprazole 20mg", "sertraline 50mg",
		"amlodipine 5mg", "levothyroxine 25mcg", "atorvastatin 40mg",
		"ibuprofen 600mg", "gabapentin 300mg", "cyclobenzaprine 10mg",
		"hydrochlorothiazide 25mg", "prednisone 5mg", "amoxicillin 500mg",
		"fluticasone nasal spray", "albuterol inhaler", "aspirin 81mg",
		"metoprolol 25mg", "furosemide 20mg", "pantoprazole 40mg",
		"tramadol 50mg", "zolpidem 5mg", "lorazepam 0.5mg", "sumatriptan 50mg",
		"propranolol 40mg",
	}

	allergens = []string{
		"penicillin", "sulfa", "latex", "aspirin", "ibuprofen",
		"shellfish", "peanuts", "eggs", "milk", "soy",
		"tree nuts", "wheat", "codeine", "morphine",
		"bees", "cats", "dogs", "dust", "mold",
		"amoxicillin", "tetracycline", "erythromycin",
	}

	labPanels = []string{"Complete Blood Count", "X-ray Chest", "Urinalysis", "Electrolytes"}
)
