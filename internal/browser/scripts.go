package browser

// snapshotScript serializes the current document with live state folded into
// the markup: every element gets data-probe-visible, form controls get
// data-probe-value, open shadow roots become declarative templates. The page
// itself is not touched; only a clone is annotated.
const snapshotScript = `() => {
	const originals = Array.from(document.documentElement.querySelectorAll('*'));
	const clone = document.documentElement.cloneNode(true);
	const copies = Array.from(clone.querySelectorAll('*'));
	const formTags = ['INPUT', 'SELECT', 'TEXTAREA'];

	const root = [document.documentElement].concat(originals);
	const rootCopies = [clone].concat(copies);

	for (let i = 0; i < root.length && i < rootCopies.length; i++) {
		const el = root[i];
		const copy = rootCopies[i];
		copy.setAttribute('data-probe-visible', el.offsetWidth > 0 && el.offsetHeight > 0 ? '1' : '0');
		if (formTags.includes(el.tagName)) {
			copy.setAttribute('data-probe-value', el.value == null ? '' : String(el.value));
			if (el.disabled) copy.setAttribute('disabled', '');
			else copy.removeAttribute('disabled');
			if (el.readOnly) copy.setAttribute('readonly', '');
		}
		if (el.shadowRoot && el.shadowRoot.mode === 'open') {
			const tpl = document.createElement('template');
			tpl.setAttribute('shadowrootmode', 'open');
			tpl.innerHTML = el.shadowRoot.innerHTML;
			copy.insertBefore(tpl, copy.firstChild);
		}
	}

	const frames = Array.from(document.querySelectorAll('iframe')).map((f, index) => {
		let accessible = false;
		let reason = '';
		try {
			accessible = !!f.contentDocument;
			if (!accessible) reason = 'cross_origin';
		} catch (e) {
			reason = e.message;
		}
		return {
			index: index,
			id: f.id || '',
			name: f.getAttribute('name') || '',
			className: typeof f.className === 'string' ? f.className : '',
			src: f.src || '',
			accessible: accessible,
			reason: reason
		};
	});

	return {
		url: window.location.href,
		title: document.title,
		html: '<!DOCTYPE html>' + clone.outerHTML,
		frames: frames
	};
}`

const countControlsScript = `() => ({
	inputs: document.querySelectorAll('input, select, textarea').length,
	buttons: document.querySelectorAll('button, input[type="submit"]').length
})`

const inspectFieldScript = `(id) => {
	const el = document.getElementById(id);
	if (!el) return null;
	const info = {
		tag: el.tagName,
		id: el.id || '',
		name: el.name || '',
		type: el.type || '',
		className: typeof el.className === 'string' ? el.className : '',
		value: el.value == null ? '' : String(el.value),
		placeholder: el.placeholder || '',
		title: el.title || '',
		text: (el.textContent || '').trim().substring(0, 100),
		src: el.src || '',
		href: el.href || '',
		maxLength: el.maxLength > 0 ? el.maxLength : 0,
		visible: el.offsetWidth > 0 && el.offsetHeight > 0,
		disabled: !!el.disabled,
		readOnly: !!el.readOnly,
		selectedText: '',
		options: []
	};
	if (el.options) {
		info.options = Array.from(el.options).map((o, i) => ({
			index: i, value: o.value, text: o.text, selected: o.selected
		}));
		const sel = el.options[el.selectedIndex];
		info.selectedText = sel ? sel.text : '';
	}
	return info;
}`

const describeSelectorScript = `(selector) => {
	const el = document.querySelector(selector);
	if (!el) return null;
	return {
		tag: el.tagName,
		id: el.id || '',
		name: el.name || '',
		type: el.type || '',
		className: typeof el.className === 'string' ? el.className : '',
		value: el.value == null ? '' : String(el.value),
		placeholder: el.placeholder || '',
		title: el.title || '',
		text: (el.textContent || '').trim().substring(0, 100),
		src: el.src || '',
		href: el.href || '',
		maxLength: el.maxLength > 0 ? el.maxLength : 0,
		visible: el.offsetWidth > 0 && el.offsetHeight > 0,
		disabled: !!el.disabled,
		readOnly: !!el.readOnly
	};
}`

const setValueScript = `([id, value]) => {
	const el = document.getElementById(id);
	if (!el) return false;
	el.value = value;
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
}`

const unlockScript = `([id, disabledClass]) => {
	const el = document.getElementById(id);
	if (!el) return false;
	el.removeAttribute('disabled');
	el.disabled = false;
	if (disabledClass) el.classList.remove(disabledClass);
	el.readOnly = false;
	return true;
}`
