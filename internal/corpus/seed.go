package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// seedDocuments holds the bundled starter guidelines, one per supported
// scenario. They are deliberately short summaries so a fresh install can
// answer questions before a real guideline corpus is dropped in.
var seedDocuments = map[string]string{
	"ponv_prophylaxis.md": `# PONV Risk Assessment and Prophylaxis

## Risk scoring

Postoperative nausea and vomiting risk is estimated with the Koivuranta
score, one point per factor:

- female sex
- history of PONV
- history of motion sickness
- non-smoking status
- duration of surgery over 60 minutes

Predicted incidence rises with the score: roughly 17%, 18%, 42%, 54%,
74% and 87% for 0 through 5 points.

## Risk-adapted prophylaxis

- Low risk (0-1 points): no routine prophylaxis; rescue treatment only.
- Moderate risk (2-3 points): two prophylactic agents from different
  classes, typically ondansetron 4 mg IV at the end of surgery plus
  dexamethasone 4-8 mg IV after induction.
- High risk (4-5 points): combination prophylaxis with three agents or
  two agents plus total intravenous anaesthesia with propofol. Consider
  avoiding volatile anaesthetics and nitrous oxide, and minimise
  perioperative opioids with multimodal analgesia.

## Rescue treatment

For established PONV use an antiemetic from a class not given
prophylactically. Repeating the prophylactic agent within 6 hours adds
no benefit. Options include ondansetron 4 mg IV if not already given,
droperidol 0.625-1.25 mg IV, or dimenhydrinate 1 mg/kg IV.
`,

	"postoperative_delirium.md": `# Postoperative Delirium: Screening and Management

## Screening

Screen all at-risk patients with the Nursing Delirium Screening Scale
(Nu-DESC) once per shift through postoperative day 3. The scale scores
five items from 0 to 2: disorientation, inappropriate behaviour,
inappropriate communication, illusions or hallucinations, and
psychomotor retardation. A total score of 2 or more indicates delirium
and should trigger assessment and a workup for precipitating causes.

## Non-pharmacological management

First-line management is non-pharmacological for every patient:

- reorientation aids: clocks, calendars, familiar objects, daylight
- return glasses and hearing aids early
- protect the sleep-wake cycle, avoid overnight interventions
- early mobilisation and removal of catheters and drains when feasible
- adequate analgesia favouring non-opioid agents
- review the medication list for deliriogenic drugs

## Pharmacological measures

Benzodiazepines should be avoided outside alcohol withdrawal, as they
prolong and worsen delirium. Reserve antipsychotics for severe
agitation that endangers the patient or staff: low-dose haloperidol
0.5-1 mg or risperidone 0.5 mg, re-evaluated daily. Hyperactive
symptoms controlled with an antipsychotic still require treating the
underlying cause: hypoxia, infection, urinary retention, pain,
electrolyte derangement.
`,

	"chest_tube_management.md": `# Chest Tube Removal After Thoracic Surgery

## Removal criteria

A chest tube placed after anatomical lung resection can be removed when
all of the following hold:

- no air leak on water seal, confirmed over an observation period
- serous or serosanguineous drainage; bloody or turbid fluid warrants
  investigation before removal
- drainage volume below the institutional threshold, commonly up to
  450 mL over 24 hours for adult patients
- full lung expansion on chest radiograph
- no suspicion of active bleeding or chylothorax

Higher drainage thresholds (up to 450 mL/24h) have been shown safe
after lobectomy and do not increase reintervention rates compared with
traditional 200 mL cut-offs, while shortening drain time and stay.

## Persistent air leak

An air leak persisting beyond postoperative day 5 is a prolonged air
leak. Options include continued water seal, an ambulatory one-way
valve system, or chemical pleurodesis. Suction is not routinely
superior to water seal for sealing alveolar leaks.

## After removal

Obtain a chest radiograph within 2-4 hours of removal, or earlier with
respiratory symptoms. A small stable apical pneumothorax without
symptoms can be observed.
`,
}

// Seed writes the bundled starter guidelines into dir when it holds no
// readable documents yet. It returns the corpus-relative names written,
// or nil when the corpus already has content.
func Seed(dir string) ([]string, error) {
	existing, err := Scan(dir)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create corpus dir: %w", err)
	}

	names := make([]string, 0, len(seedDocuments))
	for name := range seedDocuments {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(seedDocuments[name]), 0o600); err != nil {
			return nil, fmt.Errorf("write seed document %s: %w", name, err)
		}
	}

	return names, nil
}
