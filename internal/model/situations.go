package model

import "time"

// MergeSituation applies a partial update over the current record.
// Nil fields keep the current value; Links is replaced only when provided.
func MergeSituation(current Situation, req UpdateSituationRequest) Situation {
	out := current
	if req.Title != nil {
		out.Title = *req.Title
	}
	if req.Theme != nil {
		out.Theme = *req.Theme
	}
	if req.Prompt != nil {
		out.Prompt = *req.Prompt
	}
	if req.Links != nil {
		out.Links = req.Links
	}
	if req.Accent != nil {
		out.Accent = *req.Accent
	}
	if req.Ambience != nil {
		out.Ambience = *req.Ambience
	}
	out.UpdatedAt = time.Now().UTC()
	return out
}

// SeedSituations returns the default catalogue installed when a fresh store
// comes up empty. The records are editable afterwards through the situation
// endpoints.
func SeedSituations() []Situation {
	return []Situation{
		{
			ID:     "cafe",
			Title:  "Au café",
			Theme:  "Commander une boisson et un encas",
			Prompt: "You are the waiter at a small Parisian café. Greet the learner, take their order, suggest a pastry, and make small talk about the neighborhood.",
			Links: []string{
				"Je voudrais un café, s'il vous plaît.",
				"Qu'est-ce que vous me conseillez ?",
				"L'addition, s'il vous plaît.",
			},
			Accent:   "parisien",
			Ambience: "terrasse animée, tasses qui s'entrechoquent",
		},
		{
			ID:     "boulangerie",
			Title:  "À la boulangerie",
			Theme:  "Acheter du pain et des viennoiseries",
			Prompt: "You are the baker behind the counter. Help the learner choose bread and pastries, mention what just came out of the oven, and handle payment.",
			Links: []string{
				"Une baguette tradition, s'il vous plaît.",
				"C'est combien ?",
				"Vous avez encore des croissants ?",
			},
			Accent:   "neutre",
			Ambience: "odeur de pain chaud, file d'attente du matin",
		},
		{
			ID:     "marche",
			Title:  "Au marché",
			Theme:  "Acheter des fruits et légumes",
			Prompt: "You are a market vendor. Talk about what is in season, let the learner taste something, and negotiate quantities and prices.",
			Links: []string{
				"Ils sont à combien, les abricots ?",
				"Je peux goûter ?",
				"Un kilo de tomates, s'il vous plaît.",
			},
			Accent:   "provençal",
			Ambience: "étals colorés, vendeurs qui interpellent",
		},
		{
			ID:     "hotel",
			Title:  "À la réception de l'hôtel",
			Theme:  "S'enregistrer et demander des renseignements",
			Prompt: "You are the hotel receptionist. Check the learner in, explain breakfast hours, and recommend places to visit nearby.",
			Links: []string{
				"J'ai une réservation au nom de…",
				"Le petit-déjeuner est à quelle heure ?",
				"Vous pouvez me conseiller un restaurant ?",
			},
			Accent:   "neutre",
			Ambience: "hall feutré, clavier de la réception",
		},
	}
}
