package identity

// departmentCodes maps the letter code embedded in a roll number to a department.
// Three-letter codes are looked up before two-letter ones.
var departmentCodes = map[string]string{
	// three-letter codes
	"AIM": "Artificial Intelligence and Machine Learning",
	"CSD": "Computer Science and Design",
	"MBA": "Management Sciences",

	// two-letter codes
	"MX": "MCA",
	"PW": "MSc Software Systems",
	"PD": "MSc Data Science",
	"PC": "MSc Cyber Security",
	"PT": "MSc Theoretical Computer Science",
	"PA": "MSc Applied Mathematics",
	"CS": "Computer Science and Engineering",
	"IT": "Information Technology",
	"EC": "Electronics and Communication Engineering",
	"EE": "Electrical and Electronics Engineering",
	"EI": "Instrumentation and Control Engineering",
	"ME": "Mechanical Engineering",
	"CE": "Civil Engineering",
	"AU": "Automobile Engineering",
	"BM": "Biomedical Engineering",
	"BT": "Biotechnology",
	"PR": "Production Engineering",
	"MT": "Metallurgical Engineering",
	"RA": "Robotics and Automation",
	"TX": "Textile Technology",
	"FT": "Fashion Technology",
	"AM": "Applied Mathematics and Computational Sciences",
}

// resolveDepartment looks up the code embedded at the start of the roll number's
// letter run. It falls back to the raw code, so it never fails.
func resolveDepartment(roll, rawCode string) string {
	if len(roll) >= 5 {
		if name, ok := departmentCodes[roll[2:5]]; ok {
			return name
		}
	}
	if len(roll) >= 4 {
		if name, ok := departmentCodes[roll[2:4]]; ok {
			return name
		}
	}
	return rawCode
}
