// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package thoughts

import (
	"math/rand"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

// messageTemplates holds the pool of progress lines per phase. Message
// draws one at random so long-running analyses read less mechanical.
var messageTemplates = map[datatypes.ThoughtPhase][]string{
	datatypes.PhaseUnderstanding: {
		"🤔 Reading your request...",
		"📖 Understanding the requirements...",
		"🎯 Analyzing what you need...",
	},
	datatypes.PhaseAnalyzing: {
		"🔍 Analyzing technical requirements...",
		"🧠 Processing with AI...",
		"📊 Evaluating complexity...",
	},
	datatypes.PhaseClassifying: {
		"🏷️ Classifying intent type...",
		"📋 Determining project category...",
		"🎨 Identifying domain...",
	},
	datatypes.PhaseDecomposing: {
		"🔨 Breaking down into tasks...",
		"📝 Creating action items...",
		"🧩 Organizing dependencies...",
	},
	datatypes.PhasePlanning: {
		"📅 Estimating effort...",
		"👥 Identifying required skills...",
		"⚡ Setting priorities...",
	},
	datatypes.PhaseValidating: {
		"✅ Validating task breakdown...",
		"🔗 Checking dependencies...",
		"📊 Finalizing analysis...",
	},
	datatypes.PhaseComplete: {
		"🎉 Analysis complete!",
		"✨ Ready to proceed!",
		"🚀 All set!",
	},
	datatypes.PhaseError: {
		"❌ Encountered an issue...",
		"⚠️ Something went wrong...",
		"🔧 Trying alternative approach...",
	},
}

// fallbackMessage covers phases without a template pool.
const fallbackMessage = "Processing..."

// Message builds a timestamped event for the phase with a randomly
// chosen progress line. Callers layer detail, progress, and metadata on
// top with the ThoughtEvent builders:
//
//	mgr.Emit(ctx, id, thoughts.Message(datatypes.PhaseAnalyzing).
//		WithDetail("Detected domain: api_development").
//		WithProgress(0.3))
func Message(phase datatypes.ThoughtPhase) datatypes.ThoughtEvent {
	pool := messageTemplates[phase]
	if len(pool) == 0 {
		return datatypes.NewThoughtEvent(phase, fallbackMessage)
	}
	return datatypes.NewThoughtEvent(phase, pool[rand.Intn(len(pool))])
}

// Messages returns a copy of the template pool for the phase. Intended
// for consumers that render their own progress UI and want the full
// vocabulary up front.
func Messages(phase datatypes.ThoughtPhase) []string {
	pool := messageTemplates[phase]
	if len(pool) == 0 {
		return nil
	}
	out := make([]string, len(pool))
	copy(out, pool)
	return out
}
