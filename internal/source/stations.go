package source

// Station is a KMA observation station queried for special weather reports.
type Station struct {
	ID   int
	Name string
}

// WarningStations lists every station whose special reports are polled.
var WarningStations = []Station{
	{90, "속초"}, {93, "북춘천"}, {95, "철원"}, {96, "독도"}, {98, "동두천"},
	{99, "파주"}, {100, "대관령"}, {101, "춘천"}, {102, "백령도"}, {104, "북강릉"},
	{105, "강릉"}, {106, "동해"}, {108, "서울"}, {112, "인천"}, {114, "원주"},
	{115, "울릉도"}, {116, "관악(레)"}, {119, "수원"}, {121, "영월"}, {127, "충주"},
	{129, "서산"}, {130, "울진"}, {131, "청주"}, {133, "대전"}, {135, "추풍령"},
	{136, "안동"}, {137, "상주"}, {138, "포항"}, {140, "군산"}, {143, "대구"},
	{146, "전주"}, {155, "창원"}, {156, "광주"}, {162, "통영"}, {165, "목포"},
	{168, "여수"}, {169, "흑산도"}, {170, "완도"}, {172, "고창"}, {174, "순천"},
	{175, "진도(레)"}, {177, "홍성"}, {184, "제주"}, {185, "고산"}, {188, "성산"},
	{189, "서귀포"}, {192, "진주"}, {201, "강화"}, {202, "양평"}, {203, "이천"},
	{211, "인제"}, {212, "홍천"}, {216, "태백"}, {217, "정선군"}, {221, "제천"},
	{226, "보은"}, {229, "북격렬비도"}, {232, "천안"}, {235, "보령"}, {236, "부여"},
	{238, "금산"}, {239, "세종"}, {243, "부안"}, {244, "임실"}, {245, "정읍"},
	{247, "남원"}, {248, "장수"}, {251, "고창군"}, {252, "영광군"}, {253, "김해시"},
	{254, "순창군"}, {255, "북창원"}, {257, "양산시"}, {258, "보성군"}, {259, "강진군"},
	{260, "장흥"}, {261, "해남"}, {262, "고흥"}, {263, "의령군"}, {264, "함양군"},
	{266, "광양시"}, {268, "진도군"}, {271, "봉화"}, {272, "영주"}, {273, "문경"},
	{276, "청송군"}, {277, "영덕"}, {278, "의성"}, {279, "구미"}, {281, "영천"},
	{283, "경주시"}, {284, "거창"}, {285, "합천"}, {288, "밀양"}, {289, "산청"},
	{294, "거제"}, {295, "남해"}, {296, "북부산"}, {300, "말도"}, {301, "임자도"},
	{302, "장산도"}, {303, "가거도"}, {304, "신지도"}, {305, "여서도"}, {306, "소리도"},
	{308, "옥도"}, {310, "궁촌"}, {311, "가야산"}, {312, "주왕산"}, {313, "양지암"},
	{314, "덕유봉"}, {315, "성삼재"}, {316, "무등산"}, {317, "모악산"}, {318, "용평"},
	{319, "천부"}, {320, "향로봉"}, {321, "원통"}, {322, "상서"}, {323, "마현"},
	{324, "송계"}, {325, "백운"}, {326, "용문산"}, {327, "우암산"}, {328, "중문"},
	{329, "산천단"}, {330, "대흘"}, {351, "남면"}, {352, "장흥면"}, {353, "덕정동"},
	{355, "서탄면"}, {356, "고덕면"}, {358, "현덕면"}, {359, "선단동"}, {360, "내촌면"},
	{361, "영중면"}, {364, "분당구"}, {365, "석수동"}, {366, "오전동"}, {367, "신현동"},
	{368, "수택동"}, {369, "수리산길"}, {370, "이동묵리"}, {371, "기흥구"}, {372, "은현면"},
	{373, "남방"}, {374, "청북"}, {375, "백석읍"}, {400, "강남"}, {401, "서초"},
	{402, "강동"}, {403, "송파"}, {404, "강서"}, {405, "양천"}, {406, "도봉"},
	{407, "노원"}, {408, "동대문"}, {409, "중랑"}, {410, "기상청"}, {411, "마포"},
	{412, "서대문"}, {413, "광진"}, {414, "성북"}, {415, "용산"}, {416, "은평"},
	{417, "금천"}, {418, "한강"}, {419, "중구"}, {421, "성동"}, {423, "구로"},
	{424, "강북"}, {425, "남현"}, {426, "백령(레)"}, {427, "김포장기"}, {428, "하남덕풍"},
	{430, "경기"}, {431, "신곡"}, {432, "향남"}, {433, "부천"}, {434, "안양"},
	{435, "고잔"}, {436, "역삼"}, {437, "광명"}, {438, "군포"}, {439, "진안"},
	{440, "설봉"}, {441, "김포"}, {442, "지월"}, {443, "보개"}, {444, "하남"},
	{445, "의왕"}, {446, "남촌"}, {447, "북내"}, {448, "산북"}, {449, "옥천"},
	{450, "주교"}, {451, "오남"}, {452, "신북"}, {453, "소하"}, {454, "하봉암"},
	{455, "읍내"}, {456, "연천"}, {457, "춘궁"}, {458, "퇴촌"}, {459, "오포"},
	{460, "실촌"}, {461, "마장"}, {462, "모가"}, {463, "흥천"}, {464, "점동"},
	{465, "가남"}, {466, "금사"}, {467, "양성"}, {468, "서운"}, {469, "일죽"},
	{470, "고삼"}, {471, "송탄"}, {472, "포승"}, {473, "가산"}, {474, "영북"},
	{475, "관인"}, {476, "화현"}, {477, "상패"}, {478, "왕징"}, {479, "장남"},
}
